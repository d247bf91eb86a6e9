package expr

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	nberrors "github.com/wippyai/nativeboot/errors"
)

func sample() *Node {
	return Op("plus",
		Array("a", []int{2, 2}, []float64{1, 2, 3, 4}),
		Op("negate", Array("b", nil, []float64{0.5, -1, 2, 8})),
	)
}

func TestPrintTree(t *testing.T) {
	var b strings.Builder
	if err := PrintTree(&b, sample()); err != nil {
		t.Fatalf("PrintTree error: %v", err)
	}

	want := "" +
		"   Op plus (2 args)\n" +
		"      Array a [2x2]\n" +
		"      Op negate (1 args)\n" +
		"         Array b [4]\n"
	if b.String() != want {
		t.Errorf("PrintTree =\n%s\nwant\n%s", b.String(), want)
	}
}

func TestWalk_Order(t *testing.T) {
	var names []string
	var depths []int
	err := Walk(sample(), func(n *Node, depth int) error {
		names = append(names, n.Name)
		depths = append(depths, depth)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if want := []string{"plus", "a", "negate", "b"}; !reflect.DeepEqual(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
	if want := []int{0, 1, 1, 2}; !reflect.DeepEqual(depths, want) {
		t.Errorf("depths = %v, want %v", depths, want)
	}
}

func TestWalk_Stops(t *testing.T) {
	stop := errors.New("stop")
	visited := 0
	err := Walk(sample(), func(n *Node, _ int) error {
		visited++
		if n.Name == "a" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk error = %v, want stop", err)
	}
	if visited != 2 {
		t.Errorf("visited %d nodes, want 2", visited)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		ok   bool
	}{
		{"sample", sample(), true},
		{"scalar", Array("s", []int{}, []float64{3}), true},
		{"empty vector", Array("e", nil, nil), true},
		{"short data", Array("x", []int{2, 3}, []float64{1}), false},
		{"negative dim", Array("x", []int{-1}, nil), false},
		{"overflowing shape", Array("x", []int{math.MaxInt/2 + 1, 2}, nil), false},
		{"overflow on third dim", Array("x", []int{math.MaxInt/4 + 1, 2, 2}, nil), false},
		{"zero dim in large shape", Array("x", []int{math.MaxInt, 0}, nil), true},
		{"unnamed op", Op("", Array("a", nil, []float64{1})), false},
		{"nil arg", Op("plus", nil), false},
		{"unknown kind", &Node{Kind: 9}, false},
		{"nil root", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate error: %v", err)
			}
			if !tt.ok && !errors.Is(err, nberrors.ErrInvalidInput) {
				t.Errorf("Validate = %v, want InvalidInput", err)
			}
		})
	}
}

func TestEncode_Layout(t *testing.T) {
	got, err := Encode(Array("v", nil, []float64{1}))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	want := []byte{
		byte(KindArray),
		1, 'v',
		1, 1, // one dimension of size 1
		0, 0, 0, 0, 0, 0, 0xf0, 0x3f, // 1.0
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode = %x, want %x", got, want)
	}
}

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(sample())
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if data[0] != byte(KindOp) {
		t.Errorf("first byte = %d, want op kind", data[0])
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Errorf("Decode = %+v, want %+v", got, sample())
	}
}

func TestEncode_Invalid(t *testing.T) {
	if _, err := Encode(Array("x", []int{3}, nil)); !errors.Is(err, nberrors.ErrInvalidInput) {
		t.Errorf("Encode = %v, want InvalidInput", err)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	valid, _ := Encode(sample())
	tests := map[string][]byte{
		"empty":        nil,
		"truncated":    valid[:len(valid)-3],
		"trailing":     append(append([]byte{}, valid...), 0),
		"unknown kind": {7, 0},
		"huge name":    {byte(KindOp), 0xff, 0x01},
		"huge array":   {byte(KindArray), 0, 1, 0xff, 0xff, 0x03},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(data); !errors.Is(err, nberrors.ErrInvalidInput) {
				t.Errorf("Decode = %v, want InvalidInput", err)
			}
		})
	}
}
