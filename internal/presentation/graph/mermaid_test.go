package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/screener"
	"github.com/aretw0/screener/internal/presentation/graph"
	"github.com/aretw0/screener/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	eng, err := screener.New()
	require.NoError(t, err)

	out := graph.GenerateMermaid(eng.Inspect(), nil)

	for _, want := range []string{
		"graph TD\n",
		`greeting(("greeting <br/> start_interview()"))`,
		`collect_salary[/"collect_salary <br/> collect_salary()"/]`,
		`closing((("closing")))`,
		`resolution["resolution <br/> end_interview()"]`,
		`collect_salary -- "salary <= 50" --> motivation`,
		`collect_salary -- "salary > 50" --> rejection`,
		"rejection --> closing",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	eng, err := screener.New()
	require.NoError(t, err)

	ctx := context.Background()
	sess := eng.NewSession(ctx, "overlay")
	_, err = eng.Complete(ctx, sess, domain.StageGreeting, nil)
	require.NoError(t, err)

	out := graph.GenerateMermaid(eng.Inspect(), graph.OverlayFor(sess))
	assert.Contains(t, out, "class greeting visited;")
	assert.Contains(t, out, "class collect_name current;")
	assert.Equal(t, 1, strings.Count(out, "class collect_name"))
	assert.Nil(t, graph.OverlayFor(nil))
}
