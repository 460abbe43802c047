package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var sessionJSON bool

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "Manage document sessions",
	Long: `Create document sessions, edit their parameters and fragments,
and check whether they are ready to render.

A session is addressed by its UUID or by its alias within your group.`,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [template-id] [alias]",
	Short: "Start a session from a template",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionCreate,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session]",
	Short: "Show a session's parameters and fragments",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionGlobalsCmd = &cobra.Command{
	Use:   "globals [session]",
	Short: "Replace the session's global parameters",
	Long: `Validate and replace the whole global parameter map.

Examples:
  docforge session globals q4-report -p title=Q4 -p author=X
  docforge session globals q4-report -f globals.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionGlobals,
}

var sessionAddCmd = &cobra.Command{
	Use:   "add [session] [fragment-id]",
	Short: "Append a fragment",
	Long: `Validate parameters and append a fragment instance.

Use key=value for strings and key:=value for YAML or JSON values.

Examples:
  docforge session add q4-report paragraph -p text=Intro
  docforge session add q4-report table \
    -p 'rows:=[["Q","Rev"],["Q1","1250000"]]' -p has_header:=true \
    -p 'number_format:={"1": "currency:USD"}' \
    -p 'sort_by:={column: Rev, order: desc}'`,
	Args: cobra.ExactArgs(2),
	RunE: runSessionAdd,
}

var sessionReplaceCmd = &cobra.Command{
	Use:   "replace [session] [instance-id]",
	Short: "Replace a fragment with a new instance of the same type",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionReplace,
}

var sessionRemoveCmd = &cobra.Command{
	Use:   "remove [session] [instance-id]",
	Short: "Remove a fragment",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionRemove,
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status [session]",
	Short: "Report parameter completeness and readiness",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStatus,
}

var sessionAbortCmd = &cobra.Command{
	Use:   "abort [session]",
	Short: "End a session and delete its state and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionAbort,
}

func init() {
	for _, c := range []*cobra.Command{sessionListCmd, sessionShowCmd, sessionStatusCmd} {
		c.Flags().BoolVar(&sessionJSON, "json", false, "output as JSON")
	}
	addParamFlags(sessionGlobalsCmd)
	addParamFlags(sessionAddCmd)
	addParamFlags(sessionReplaceCmd)

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionGlobalsCmd)
	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionReplaceCmd)
	sessionCmd.AddCommand(sessionRemoveCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionAbortCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	sess, err := svc.Sessions.Create(cmd.Context(), args[0], args[1], group())
	if err != nil {
		return err
	}

	cmd.Printf("Created session %s (%s)\n", sess.Alias, sess.ID)
	return nil
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	sessions, err := svc.Sessions.List(cmd.Context(), group())
	if err != nil {
		return err
	}

	if sessionJSON {
		return printJSON(cmd, sessions)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions.")
		return nil
	}

	cmd.Printf("%-24s %-16s %9s  %s\n", "ALIAS", "TEMPLATE", "FRAGMENTS", "UPDATED")
	for i := range sessions {
		s := &sessions[i]
		cmd.Printf("%-24s %-16s %9d  %s\n", s.Alias, s.TemplateID, len(s.Fragments), s.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	sess, err := svc.Sessions.Get(cmd.Context(), args[0], group())
	if err != nil {
		return err
	}

	if sessionJSON {
		return printJSON(cmd, sess)
	}

	cmd.Printf("Session:  %s\n", sess.Alias)
	cmd.Printf("ID:       %s\n", sess.ID)
	cmd.Printf("Template: %s\n", sess.TemplateID)
	cmd.Printf("Group:    %s\n", sess.Group)
	cmd.Printf("Updated:  %s\n", sess.UpdatedAt.Local().Format(time.DateTime))
	cmd.Println()

	cmd.Println("Globals:")
	if len(sess.Globals) == 0 {
		cmd.Println("  (none)")
	}
	keys := make([]string, 0, len(sess.Globals))
	for k := range sess.Globals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %s\n", k, compact(sess.Globals[k]))
	}
	cmd.Println()

	cmd.Println("Fragments:")
	if len(sess.Fragments) == 0 {
		cmd.Println("  (none)")
	}
	for _, f := range sess.Fragments {
		cmd.Printf("  #%d %s  %s\n", f.Seq, f.FragmentID, f.InstanceID)
		cmd.Printf("     %s\n", compact(f.Params))
	}
	return nil
}

func runSessionGlobals(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	params, err := readParams(cmd)
	if err != nil {
		return err
	}
	if err := svc.Sessions.SetGlobals(cmd.Context(), args[0], group(), params); err != nil {
		return err
	}

	cmd.Printf("Set %d global parameter(s) on %s\n", len(params), args[0])
	return nil
}

func runSessionAdd(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	params, err := readParams(cmd)
	if err != nil {
		return err
	}
	id, err := svc.Sessions.AddFragment(cmd.Context(), args[0], group(), args[1], params)
	if err != nil {
		return err
	}

	cmd.Printf("Added %s fragment %s\n", args[1], id)
	return nil
}

func runSessionReplace(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	params, err := readParams(cmd)
	if err != nil {
		return err
	}
	id, err := svc.Sessions.ReplaceFragment(cmd.Context(), args[0], group(), args[1], params)
	if err != nil {
		return err
	}

	cmd.Printf("Replaced %s with %s\n", args[1], id)
	return nil
}

func runSessionRemove(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	if err := svc.Sessions.RemoveFragment(cmd.Context(), args[0], group(), args[1]); err != nil {
		return err
	}

	cmd.Printf("Removed %s\n", args[1])
	return nil
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	report, err := svc.Sessions.Status(cmd.Context(), args[0], group())
	if err != nil {
		return err
	}

	if sessionJSON {
		return printJSON(cmd, report)
	}

	cmd.Printf("Session:   %s (%s)\n", report.Alias, report.Status)
	cmd.Printf("Template:  %s\n", report.TemplateID)
	if report.GlobalsSet {
		cmd.Println("Globals:   complete")
	} else {
		cmd.Printf("Globals:   missing %s\n", strings.Join(report.MissingGlobals, ", "))
	}
	cmd.Printf("Fragments: %d\n", report.FragmentCount)
	cmd.Printf("Ready:     %s\n", yesNo(report.Ready))
	return nil
}

func runSessionAbort(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	if err := svc.Sessions.Abort(cmd.Context(), args[0], group()); err != nil {
		return err
	}

	cmd.Printf("Aborted %s\n", args[0])
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// compact renders a parameter value on one line.
func compact(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
