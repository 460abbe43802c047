package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

var catalogJSON bool

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Browse templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates visible to your group",
	Args:  cobra.NoArgs,
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show [template-id]",
	Short: "Show a template's parameters and fragment types",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var styleCmd = &cobra.Command{
	Use:     "style",
	Aliases: []string{"styles"},
	Short:   "Browse styles",
}

var styleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List styles visible to your group",
	Args:  cobra.NoArgs,
	RunE:  runStyleList,
}

func init() {
	for _, c := range []*cobra.Command{templateListCmd, templateShowCmd, styleListCmd} {
		c.Flags().BoolVar(&catalogJSON, "json", false, "output as JSON")
	}

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	styleCmd.AddCommand(styleListCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(styleCmd)
}

func runTemplateList(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	templates, err := svc.Catalog.Templates(cmd.Context(), group())
	if err != nil {
		return err
	}

	if catalogJSON {
		return printJSON(cmd, templates)
	}

	if len(templates) == 0 {
		cmd.Println("No templates.")
		return nil
	}

	cmd.Printf("%-20s %-10s %s\n", "ID", "GROUP", "TITLE")
	for i := range templates {
		t := &templates[i]
		cmd.Printf("%-20s %-10s %s\n", t.ID, t.Group, t.Title)
	}
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	tpl, err := svc.Catalog.Template(cmd.Context(), args[0], group())
	if err != nil {
		return err
	}

	if catalogJSON {
		return printJSON(cmd, tpl)
	}

	cmd.Printf("Template: %s\n", tpl.ID)
	if tpl.Title != "" {
		cmd.Printf("Title:    %s\n", tpl.Title)
	}
	cmd.Printf("Group:    %s\n", tpl.Group)
	cmd.Printf("Minimum fragments: %d\n", tpl.MinFragments)
	if len(tpl.RequiredFragments) > 0 {
		cmd.Printf("Required fragments: %s\n", strings.Join(tpl.RequiredFragments, ", "))
	}
	cmd.Println()

	cmd.Println("Globals:")
	printSchema(cmd, tpl.GlobalSchema)
	cmd.Println()

	ids := make([]string, 0, len(tpl.Fragments))
	for id := range tpl.Fragments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cmd.Println("Fragments:")
	for _, id := range ids {
		ft := tpl.Fragments[id]
		cmd.Printf("  %s (%s)", ft.ID, ft.Kind)
		if ft.Description != "" {
			cmd.Printf(" - %s", ft.Description)
		}
		cmd.Println()
		printSchema(cmd, ft.Schema)
	}
	return nil
}

func printSchema(cmd *cobra.Command, schema domain.Schema) {
	if len(schema.Fields) == 0 {
		cmd.Println("    (none)")
		return
	}
	for _, f := range schema.Fields {
		marker := " "
		if f.Required {
			marker = "*"
		}
		cmd.Printf("   %s %-16s %-10s", marker, f.Name, f.Type)
		if len(f.Enum) > 0 {
			cmd.Printf(" one of %s", strings.Join(f.Enum, "|"))
		}
		if f.Description != "" {
			cmd.Printf(" %s", f.Description)
		}
		cmd.Println()
	}
}

func runStyleList(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	styles, err := svc.Catalog.Styles(cmd.Context(), group())
	if err != nil {
		return err
	}

	if catalogJSON {
		return printJSON(cmd, styles)
	}

	if len(styles) == 0 {
		cmd.Println("No styles.")
		return nil
	}

	cmd.Printf("%-16s %-10s %-14s %s\n", "ID", "GROUP", "FONT", "ACCENT")
	for _, s := range styles {
		cmd.Printf("%-16s %-10s %-14s %s\n", s.ID, s.Group, s.FontFamily, s.AccentColor)
	}
	return nil
}
