package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "kbagentd", Short: "root"}
	AddHelpJSONFlag(root)
	root.PersistentFlags().String("vector-store", "", "Vector store")
	_ = root.PersistentFlags().SetAnnotation("vector-store", EnvAnnotation, []string{"KBAGENT_VECTOR_STORE"})
	root.PersistentFlags().Bool("debug", false, "Development logging")

	ask := &cobra.Command{Use: "ask <question>", Short: "Ask a question", Run: func(*cobra.Command, []string) {}}
	ask.Flags().Bool("sources", false, "Print sources")
	ask.Flags().StringP("api-url", "u", "", "API base URL")
	_ = ask.MarkFlagRequired("api-url")

	hidden := &cobra.Command{Use: "internal", Hidden: true, Run: func(*cobra.Command, []string) {}}
	root.AddCommand(ask, hidden)
	return root
}

func byName(flags []FlagSchema) map[string]FlagSchema {
	m := map[string]FlagSchema{}
	for _, f := range flags {
		m[f.Name] = f
	}
	return m
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(testTree())

	assert.Equal(t, "kbagentd", schema.Name)
	root := byName(schema.Flags)
	assert.NotContains(t, root, "help-json")
	assert.Equal(t, "KBAGENT_VECTOR_STORE", root["vector-store"].Env)

	require.Len(t, schema.Subcommands, 1)
	ask := schema.Subcommands[0]
	assert.Equal(t, "ask", ask.Name)
	assert.Equal(t, "Ask a question", ask.Description)

	local := byName(ask.Flags)
	require.Len(t, local, 2)
	assert.Equal(t, "bool", local["sources"].Type)
	assert.False(t, local["sources"].Required)
	assert.Equal(t, "u", local["api-url"].Shorthand)
	assert.True(t, local["api-url"].Required)

	inherited := byName(ask.Inherited)
	assert.Contains(t, inherited, "vector-store")
	assert.Contains(t, inherited, "debug")
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf, testTree()))

	var decoded CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "kbagentd", decoded.Name)
}

func TestFindTargetCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no args", args: nil, want: "kbagentd"},
		{name: "subcommand", args: []string{"ask", "capital of France?"}, want: "ask"},
		{name: "unknown", args: []string{"unknown"}, want: "kbagentd"},
		{name: "flag with value first", args: []string{"--vector-store", "memory", "ask"}, want: "ask"},
		{name: "flag with inline value", args: []string{"--vector-store=memory", "ask"}, want: "ask"},
		{name: "bool flag first", args: []string{"--debug", "ask"}, want: "ask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findTargetCommand(testTree(), tt.args).Name())
		})
	}
}
