package ngtgo_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/ngtgo"
	"github.com/hupe1980/ngtgo/distance"
)

func Example() {
	prop := ngtgo.NewProperty()
	_ = prop.SetDimension(4)
	_ = prop.SetDistanceType(distance.MetricL2)

	idx, err := ngtgo.CreateGraphAndTreeInMemory(prop)
	if err != nil {
		panic(err)
	}
	defer idx.Close()

	_, _ = idx.Insert([]float32{0, 0, 0, 0})
	_, _ = idx.Insert([]float32{1, 1, 1, 1})

	results, err := idx.Search([]float32{0, 0, 0, 0.1}, 2, 0.1, -1)
	if err != nil {
		panic(err)
	}
	for _, r := range results {
		fmt.Printf("%d %.4f\n", r.ID, r.Distance)
	}
	// Output:
	// 1 0.1000
	// 2 1.7349
}

func ExampleIndex_CreateIndex() {
	prop := ngtgo.NewProperty()
	_ = prop.SetDimension(2)

	idx, _ := ngtgo.CreateGraphAndTreeInMemory(prop)
	defer idx.Close()

	for i := range 5 {
		_, _ = idx.Append([]float32{float32(i), float32(i)})
	}
	fmt.Println("pending:", idx.PendingLen())

	_ = idx.CreateIndex(context.Background(), 2)
	fmt.Println("pending:", idx.PendingLen())

	results, _ := idx.Search([]float32{3, 3}, 1, 0, -1)
	fmt.Println("nearest:", results[0].ID)
	// Output:
	// pending: 5
	// pending: 0
	// nearest: 4
}
