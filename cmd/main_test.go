package main

import (
	"testing"

	"clinicAgent/internal/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{
		"--pipeline-mode", "--pipeline", "nightly", "--sheet-id", "1AbCdEfGhIjKlMnOpQrStUv",
		"--selected-worksheets", "Leads,Retry",
	}))

	pf := root.PersistentFlags()
	mode, err := pf.GetBool("pipeline-mode")
	require.NoError(t, err)
	assert.True(t, mode)
	ws, err := pf.GetStringSlice("selected-worksheets")
	require.NoError(t, err)
	assert.Equal(t, []string{"Leads", "Retry"}, ws)
	id, err := pf.GetString("sheet-id")
	require.NoError(t, err)
	assert.Equal(t, "1AbCdEfGhIjKlMnOpQrStUv", id)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "console"})
}

func TestRunnerSelection(t *testing.T) {
	a := &app{agent: agent.New(nil, nil, nil, nil, nil, nil, agent.Config{})}

	assert.Same(t, a.agent, a.runner(runOptions{}))

	p, ok := a.runner(runOptions{worksheets: []string{"Leads"}}).(*agent.Pipeline)
	require.True(t, ok)
	assert.Equal(t, []string{"Leads"}, p.Worksheets)

	p, ok = a.runner(runOptions{pipelineMode: true, pipeline: "nightly"}).(*agent.Pipeline)
	require.True(t, ok)
	assert.Equal(t, "nightly", p.Name)
	assert.Empty(t, p.Worksheets)
}
