package screener_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/screener"
	"github.com/aretw0/screener/pkg/domain"
)

func ExampleEngine_Complete() {
	eng, err := screener.New()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	sess := eng.NewSession(ctx, "example")

	replies := []map[string]any{
		nil,                           // greeting
		{"name": "Priya Sharma"},      // collect_name
		{"salary": "a lot"},           // collect_salary, not a number
		{"salary": 30},                // collect_salary, retried
		{"motivation": "The product"}, // motivation
		nil,                           // resolution
	}
	for _, data := range replies {
		next, err := eng.Complete(ctx, sess, sess.Current, data)
		if errors.Is(err, domain.ErrExtraction) {
			fmt.Println("re-prompt", sess.Current)
			continue
		}
		if err != nil {
			panic(err)
		}
		fmt.Println("->", next)
	}
	fmt.Println(sess.State.Outcome)

	// Output:
	// -> collect_name
	// -> collect_salary
	// re-prompt collect_salary
	// -> motivation
	// -> resolution
	// -> closing
	// accepted
}
