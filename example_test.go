package nn_test

import (
	"fmt"

	"github.com/TrevorS/nn"
)

func Example() {
	cfg := nn.DefaultConfig()
	cfg.Dim = 2

	var els []*nn.Element
	for _, p := range [][]float64{{0, 0}, {1, 0}, {0, 1}, {5, 5}, {5, 6}} {
		els = append(els, nn.NewElement(p, fmt.Sprint(p)))
	}
	idx, err := nn.Build(nn.KindVPTree, cfg, els)
	if err != nil {
		panic(err)
	}

	ns, err := idx.Search([]float64{0, 0.1}, 2)
	if err != nil {
		panic(err)
	}
	for _, n := range ns {
		fmt.Printf("%s %.1f\n", n.Element.Data, n.Dist)
	}
	// Output:
	// [0 0] 0.1
	// [0 1] 0.9
}

func ExampleVPTree_Update() {
	cfg := nn.DefaultConfig()
	cfg.Dim = 1

	tree, err := nn.NewVPTree(cfg)
	if err != nil {
		panic(err)
	}
	a := nn.NewElement([]float64{0}, "a")
	b := nn.NewElement([]float64{10}, "b")
	_ = tree.Add(a)
	_ = tree.Add(b)

	a.Point()[0] = 20
	if err := tree.Update(a); err != nil {
		panic(err)
	}

	out := make([]*nn.Element, 1)
	n, _ := tree.Nearest([]float64{18}, 1, out)
	fmt.Println(n, out[0].Data)
	// Output:
	// 1 a
}
