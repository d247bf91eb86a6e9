package expr

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/nativeboot/errors"
)

// Encode serializes a validated tree in pre-order. Each node is its kind
// byte, the length-prefixed name and then either the shape and values (arrays)
// or the argument count followed by the arguments (ops). Counts and
// dimensions are unsigned LEB128; values are little-endian IEEE 754.
func Encode(root *Node) ([]byte, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}
	var buf []byte
	_ = Walk(root, func(n *Node, _ int) error {
		buf = append(buf, byte(n.Kind))
		buf = binary.AppendUvarint(buf, uint64(len(n.Name)))
		buf = append(buf, n.Name...)
		switch n.Kind {
		case KindArray:
			buf = binary.AppendUvarint(buf, uint64(len(n.Shape)))
			for _, d := range n.Shape {
				buf = binary.AppendUvarint(buf, uint64(d))
			}
			for _, v := range n.Data {
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
			}
		case KindOp:
			buf = binary.AppendUvarint(buf, uint64(len(n.Args)))
		}
		return nil
	})
	return buf, nil
}

// Decode parses the output of Encode
func Decode(data []byte) (*Node, error) {
	d := &decoder{data: data}
	n, err := d.node()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.fail("%d trailing bytes", len(d.data)-d.pos)
	}
	return n, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) fail(format string, args ...any) error {
	return errors.InvalidInput(errors.PhaseMaterialise,
		fmt.Sprintf("decode at offset %d: %s", d.pos, fmt.Sprintf(format, args...)))
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		return 0, d.fail("bad varint")
	}
	d.pos += n
	return v, nil
}

func (d *decoder) count() (int, error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(len(d.data)) {
		return 0, d.fail("count %d exceeds input", v)
	}
	return int(v), nil
}

func (d *decoder) node() (*Node, error) {
	if d.pos >= len(d.data) {
		return nil, d.fail("unexpected end of input")
	}
	n := &Node{Kind: Kind(d.data[d.pos])}
	d.pos++

	nameLen, err := d.count()
	if err != nil {
		return nil, err
	}
	if d.pos+nameLen > len(d.data) {
		return nil, d.fail("name overruns input")
	}
	n.Name = string(d.data[d.pos : d.pos+nameLen])
	d.pos += nameLen

	switch n.Kind {
	case KindArray:
		dims, err := d.count()
		if err != nil {
			return nil, err
		}
		n.Shape = make([]int, dims)
		size := 1
		for i := range n.Shape {
			v, err := d.count()
			if err != nil {
				return nil, err
			}
			n.Shape[i] = v
			if size *= v; size > len(d.data) {
				return nil, d.fail("array %q is larger than the input", n.Name)
			}
		}
		if size > (len(d.data)-d.pos)/8 {
			return nil, d.fail("array %q values overrun input", n.Name)
		}
		n.Data = make([]float64, size)
		for i := range n.Data {
			n.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(d.data[d.pos:]))
			d.pos += 8
		}
	case KindOp:
		args, err := d.count()
		if err != nil {
			return nil, err
		}
		n.Args = make([]*Node, args)
		for i := range n.Args {
			if n.Args[i], err = d.node(); err != nil {
				return nil, err
			}
		}
	default:
		return nil, d.fail("unknown node kind %d", n.Kind)
	}
	return n, nil
}
