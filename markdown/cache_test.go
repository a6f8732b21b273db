package markdown_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/markwrap/markdown"
)

func TestCache(t *testing.T) {
	c := markdown.NewCache(2)
	want := markdown.Parse("**a** b")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if diff := cmp.Diff(want, c.Parse("**a** b", markdown.Options{})); diff != "" {
				t.Errorf("cached parse mismatch (-want +got):\n%s", diff)
			}
		}()
	}
	wg.Wait()
	if got := c.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}

	// 不同的选项是不同的键
	plain := c.Parse("**a** b", markdown.Options{MaxStyledInput: -1})
	if diff := cmp.Diff(markdown.ParseWithOptions("**a** b", markdown.Options{MaxStyledInput: -1}), plain); diff != "" {
		t.Fatalf("options ignored (-want +got):\n%s", diff)
	}

	for i := 0; i < 5; i++ {
		c.Parse(fmt.Sprint(i), markdown.Options{})
	}
	if got := c.Len(); got > 2 {
		t.Fatalf("cache grew past its size: %d", got)
	}
}
