package alloc_test

import (
	"fmt"

	"github.com/hupe1980/framecore/alloc"
)

func ExampleArena_SaveState() {
	a := alloc.NewArenaSize(1024)

	_, _ = a.Allocate(100)
	s := a.SaveState()

	_, _ = a.Allocate(200)
	_, _ = a.Allocate(300)
	fmt.Println(a.Used())

	a.LoadState(s)
	fmt.Println(a.Used())
	// Output:
	// 600
	// 100
}
