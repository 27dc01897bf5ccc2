package scenario

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// PrintSummary prints the per-stage results as a table with an overall
// verdict line.
func (r *Result) PrintSummary() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Stage", "Status", "Duration", "Detail"})
	table.SetBorder(true)

	for _, sr := range r.StageResults {
		status := "PASS"
		detail := "-"
		if !sr.Success {
			status = "FAIL"
			detail = sr.Error.Error()
		}

		table.Append([]string{
			sr.Stage.String(),
			status,
			fmt.Sprintf("%.2fs", sr.Duration.Seconds()),
			detail,
		})
	}

	table.SetFooter([]string{
		"TOTAL",
		verdictLabel(r.Succeeded),
		fmt.Sprintf("%.2fs", r.Duration.Seconds()),
		"-",
	})

	table.Render()

	fmt.Println()
	fmt.Printf("Run:\n")
	fmt.Printf("  ID: %s\n", r.RunID)
	fmt.Printf("  Stages Run: %d/%d\n", len(r.StageResults), len(allStages()))
	if r.TxHash != "" {
		fmt.Printf("  Tx Hash: %s\n", r.TxHash)
	}
	if r.Succeeded {
		color.Green("  Verdict: SUCCESS")
	} else {
		color.Red("  Verdict: FAILURE")
	}
}

func verdictLabel(ok bool) string {
	if ok {
		return "SUCCESS"
	}
	return "FAILURE"
}

func allStages() []Stage {
	return []Stage{StageOpen, StageNetwork, StageConnect, StageTransfer}
}
