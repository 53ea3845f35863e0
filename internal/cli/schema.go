// Package cli holds helpers shared by the kbagent and kbagentd command trees.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvAnnotation names the environment variable a flag overrides.
const EnvAnnotation = "kbagent_env"

const helpJSONFlag = "help-json"

// FlagSchema represents the JSON schema for a command flag.
type FlagSchema struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Env         string `json:"env,omitempty"`
	Required    bool   `json:"required"`
}

// CommandSchema represents the JSON schema for a command. Inherited lists persistent
// flags declared by ancestors.
type CommandSchema struct {
	Name        string          `json:"name"`
	Use         string          `json:"use,omitempty"`
	Description string          `json:"description,omitempty"`
	Long        string          `json:"long,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	Inherited   []FlagSchema    `json:"inherited,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

func GenerateSchema(cmd *cobra.Command) CommandSchema {
	schema := CommandSchema{
		Name:        cmd.Name(),
		Use:         cmd.Use,
		Description: cmd.Short,
		Long:        cmd.Long,
		Flags:       flagSchemas(cmd.LocalFlags()),
		Inherited:   flagSchemas(cmd.InheritedFlags()),
	}

	for _, sub := range cmd.Commands() {
		if sub.Name() == "help" || sub.Hidden || !sub.IsAvailableCommand() {
			continue
		}
		schema.Subcommands = append(schema.Subcommands, GenerateSchema(sub))
	}
	return schema
}

func flagSchemas(fs *pflag.FlagSet) []FlagSchema {
	var flags []FlagSchema
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == helpJSONFlag || f.Name == "help" {
			return
		}
		_, required := f.Annotations[cobra.BashCompOneRequiredFlag]
		schema := FlagSchema{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
			Description: f.Usage,
			Required:    required,
		}
		if env := f.Annotations[EnvAnnotation]; len(env) > 0 {
			schema.Env = env[0]
		}
		flags = append(flags, schema)
	})
	return flags
}

// WriteSchema writes the command schema as indented JSON.
func WriteSchema(w io.Writer, cmd *cobra.Command) error {
	output, err := json.MarshalIndent(GenerateSchema(cmd), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool(helpJSONFlag, false, "Output command schema as JSON")
}

// CheckHelpJSON prints the schema of the addressed command and exits when os.Args holds
// --help-json. It runs before Execute so argument validation cannot reject the request.
func CheckHelpJSON(rootCmd *cobra.Command) {
	args := os.Args[1:]
	for i, arg := range args {
		if arg != "--"+helpJSONFlag && arg != "--"+helpJSONFlag+"=true" {
			continue
		}
		if err := WriteSchema(os.Stdout, findTargetCommand(rootCmd, args[:i])); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
}

// findTargetCommand walks subcommand names in args. Flags and their values are skipped,
// so `kbagentd --vector-store memory ask --help-json` still resolves to ask.
func findTargetCommand(cmd *cobra.Command, args []string) *cobra.Command {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			name := strings.TrimLeft(arg, "-")
			if !strings.Contains(name, "=") && takesValue(cmd, name) {
				i++
			}
			continue
		}
		sub, _, err := cmd.Find([]string{arg})
		if err != nil || sub == cmd {
			return cmd
		}
		cmd = sub
	}
	return cmd
}

func takesValue(cmd *cobra.Command, name string) bool {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags(), cmd.InheritedFlags()} {
		f := fs.Lookup(name)
		if f == nil && len(name) == 1 {
			f = fs.ShorthandLookup(name)
		}
		if f != nil {
			return f.NoOptDefVal == ""
		}
	}
	return false
}
