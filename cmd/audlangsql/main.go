// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"audlangsql/internal/binding"
	"audlangsql/internal/ddl"
	"audlangsql/internal/dialect"
	"audlangsql/internal/equiv"
	"audlangsql/internal/expr"
	"audlangsql/internal/exprjson"
	"audlangsql/internal/linker"
	"audlangsql/internal/planner"
	"audlangsql/internal/render"
	"audlangsql/internal/tomlbind"
)

type globalFlags struct {
	directives []string
	format     string
	timeoutMS  int
	dialect    string
}

func main() {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "audlangsql",
		Short: "Audience expression to SQL compiler",
	}
	rootCmd.PersistentFlags().StringArrayVar(&flags.directives, "directive", nil,
		"planner directive (repeatable): ENFORCE_PRIMARY_TABLE, DISABLE_UNION, DISABLE_CONTAINS, DISABLE_LESS_THAN_GREATER_THAN, DISABLE_REFERENCE_MATCHING")
	rootCmd.PersistentFlags().StringVarP(&flags.format, "format", "f", "sql", "output format: sql|json|summary")
	rootCmd.PersistentFlags().IntVar(&flags.timeoutMS, "timeout", 0, "equivalence-helper budget in milliseconds (0 = unbounded)")
	rootCmd.PersistentFlags().StringVar(&flags.dialect, "dialect", string(dialect.Default), "literal-rendering dialect for explain: plain|default|mysql|oracle|sqlserver")

	rootCmd.AddCommand(compileCmd(flags))
	rootCmd.AddCommand(explainCmd(flags))
	rootCmd.AddCommand(lintCmd())
	rootCmd.AddCommand(fromDDLCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compileCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <expr.json> <binding.toml>",
		Short: "Compile an expression against a binding and print the parameterised SQL template",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCompile(args[0], args[1], flags)
		},
	}
	return cmd
}

func explainCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <expr.json> <binding.toml>",
		Short: "Compile an expression and print the unsafe-rendered SQL for human inspection",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runExplain(args[0], args[1], flags)
		},
	}
	return cmd
}

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <binding.toml>",
		Short: "Validate a DataBinding file's static invariants without compiling an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runLint(args[0])
		},
	}
}

func fromDDLCmd() *cobra.Command {
	var primaryTable string
	cmd := &cobra.Command{
		Use:   "from-ddl <schema.sql>",
		Short: "Derive a starter binding.toml from a CREATE TABLE dump (dev convenience, not a full schema parser)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runFromDDL(args[0], primaryTable)
		},
	}
	cmd.Flags().StringVar(&primaryTable, "primary-table", "", "table to mark primary in the generated binding")
	return cmd
}

func runFromDDL(path, primaryTable string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("from-ddl: %w", err)
	}

	opts := ddl.DefaultOptions()
	opts.PrimaryTable = primaryTable
	b, err := ddl.NewLoader(opts).Load(string(data))
	if err != nil {
		return fmt.Errorf("from-ddl: %w", err)
	}

	doc := bindingDocument(b)
	enc := toml.NewEncoder(os.Stdout)
	return enc.Encode(doc)
}

// bindingDocument projects a binding.Binding into the tomlbind document
// shape, so a schema round-trips through from-ddl straight into a file
// lint/compile can load without the developer hand-writing TOML from
// scratch (spec §9 "--from-ddl" dev convenience).
func bindingDocument(b *binding.Binding) map[string]any {
	tables := make([]map[string]any, 0, len(b.Tables))
	for _, t := range b.Tables {
		cols := make([]map[string]any, 0, len(t.Columns))
		for _, c := range t.Columns {
			cols = append(cols, map[string]any{
				"name":      c.ColumnName,
				"sql_kind":  c.SQLKind,
				"attribute": c.AttributeMapping,
			})
		}
		tables = append(tables, map[string]any{
			"name":        t.TableName,
			"id_column":   t.IDColumnName,
			"primary":     t.Primary,
			"cardinality": string(t.Nature.Cardinality),
			"unique_ids":  t.Nature.UniqueIDs,
			"columns":     cols,
		})
	}
	return map[string]any{"tables": tables}
}

func runCompile(exprPath, bindingPath string, flags *globalFlags) error {
	tmpl, _, err := buildTemplate(exprPath, bindingPath, flags)
	if err != nil {
		return err
	}

	switch flags.format {
	case "json":
		return printJSON(tmpl)
	case "summary":
		fmt.Printf("placeholders: %d\n", len(tmpl.Positions))
		fmt.Println(tmpl.SQL)
		return nil
	default:
		fmt.Println(tmpl.SQL)
		return nil
	}
}

func runExplain(exprPath, bindingPath string, flags *globalFlags) error {
	_, linked, err := buildTemplate(exprPath, bindingPath, flags)
	if err != nil {
		return err
	}

	rendered, err := render.Render(linked, dialect.Type(flags.dialect))
	if err != nil {
		return fmt.Errorf("explain: %w", err)
	}
	fmt.Println(rendered)
	return nil
}

func runLint(bindingPath string) error {
	b, err := tomlbind.NewLoader().LoadFile(bindingPath)
	if err != nil {
		return fmt.Errorf("lint: %w", err)
	}
	fmt.Printf("binding OK: %d table(s)\n", len(b.Tables))
	for _, t := range b.Tables {
		primary := ""
		if t.Primary {
			primary = " (primary)"
		}
		fmt.Printf("  %s%s: id=%s, %d column(s)\n", t.TableName, primary, t.IDColumnName, len(t.Columns))
	}
	return nil
}

// buildTemplate runs the shared expr.json + binding.toml -> QueryTemplate
// pipeline for compile and explain, additionally returning the linked form
// explain needs for unsafe rendering.
func buildTemplate(exprPath, bindingPath string, flags *globalFlags) (*planner.QueryTemplateWithParameters, linker.Linked, error) {
	arena := expr.NewArena()
	root, err := exprjson.DecodeFile(exprPath, arena)
	if err != nil {
		return nil, linker.Linked{}, err
	}

	b, err := tomlbind.NewLoader().LoadFile(bindingPath)
	if err != nil {
		return nil, linker.Linked{}, err
	}

	directives, err := parseDirectives(flags.directives)
	if err != nil {
		return nil, linker.Linked{}, err
	}

	var to *equiv.TimeOut
	if flags.timeoutMS > 0 {
		to = equiv.NewTimeOut(time.Duration(flags.timeoutMS) * time.Millisecond)
	}

	ctx := planner.NewProcessContext(binding.NewContext("cli", nil), directives, nil, to)
	p := planner.New(arena, root, b, ctx, nil)

	tmpl, err := p.Plan(planner.SelectDistinctID)
	if err != nil {
		return nil, linker.Linked{}, err
	}
	return tmpl, linker.Linked{SQL: tmpl.SQL, Parameters: tmpl.Parameters, Positions: tmpl.Positions}, nil
}

func parseDirectives(raw []string) (planner.Directives, error) {
	var d planner.Directives
	for _, r := range raw {
		switch strings.ToUpper(strings.TrimSpace(r)) {
		case "ENFORCE_PRIMARY_TABLE":
			d.EnforcePrimaryTable = true
		case "DISABLE_UNION":
			d.DisableUnion = true
		case "DISABLE_CONTAINS":
			d.DisableContains = true
		case "DISABLE_LESS_THAN_GREATER_THAN":
			d.DisableLessThanGreaterThan = true
		case "DISABLE_REFERENCE_MATCHING":
			d.DisableReferenceMatching = true
		default:
			return planner.Directives{}, fmt.Errorf("unknown directive %q", r)
		}
	}
	return d, nil
}

// paramView is the JSON-friendly projection of a param.QueryParameter: the
// real type carries a sqlkind.Kind whose fields are unexported, so compile --format json
// projects the fields a consumer actually needs.
type paramView struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Operator string `json:"operator"`
}

type templateView struct {
	SQL        string      `json:"sql"`
	Parameters []paramView `json:"parameters"`
	Positions  []int       `json:"positions"`
}

func printJSON(tmpl *planner.QueryTemplateWithParameters) error {
	view := templateView{SQL: tmpl.SQL, Positions: tmpl.Positions}
	for _, p := range tmpl.Parameters {
		view.Parameters = append(view.Parameters, paramView{ID: p.ID, Kind: p.Kind.Name(), Operator: string(p.Operator)})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
