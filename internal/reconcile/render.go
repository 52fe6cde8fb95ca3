package reconcile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/delegateas/XrmSync-sub000/internal/difference"
)

var symbols = map[Action]string{
	ActionCreate: "+",
	ActionUpdate: "~",
	ActionDelete: "-",
}

// Render writes a human-readable plan, one operation per line.
func Render(w io.Writer, plan Plan) error {
	if plan.Empty() {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}

	creates, updates, deletes := plan.Totals()
	if _, err := fmt.Fprintf(w, "Plan: %d to create, %d to update, %d to delete.\n", creates, updates, deletes); err != nil {
		return err
	}
	for _, op := range plan.Operations {
		if _, err := fmt.Fprintln(w, FormatOperation(op)); err != nil {
			return err
		}
	}
	return nil
}

// FormatOperation renders a single operation on one line.
func FormatOperation(op Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %q", symbols[op.Action], op.Action, op.Kind, op.Name)
	if op.Parent != "" {
		fmt.Fprintf(&b, " in %q", op.Parent)
	}
	switch {
	case op.Recreate:
		fmt.Fprintf(&b, " (recreate: %s)", strings.Join(op.Properties, ", "))
	case len(op.Properties) > 0:
		fmt.Fprintf(&b, " (%s)", strings.Join(op.Properties, ", "))
	}
	return b.String()
}

type jsonPlan struct {
	Operations []Operation         `json:"operations"`
	Summary    []difference.Counts `json:"summary"`
}

// RenderJSON writes the plan and its summary as indented JSON.
func RenderJSON(w io.Writer, plan Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}
