package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pfrederiksen/vols1365/internal/listing"
	"github.com/pfrederiksen/vols1365/internal/pipeline"
	"github.com/pfrederiksen/vols1365/internal/scraper"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteResult writes a run summary in the specified format
func WriteResult(w io.Writer, result *pipeline.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		fmt.Fprintf(w, "Saved %s with %d items\n", result.SnapshotPath, result.Count)
		writeStat(w, result.Stat)
		fmt.Fprintf(w, "Run %s finished in %.1fs\n", result.RunID, float64(result.DurationMS)/1000)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeStat(w io.Writer, s listing.Stat) {
	fmt.Fprintf(w, "  recruit: api/cache=%d detail=%d empty=%d\n",
		s.Recruit.FromAPIOrCache, s.Recruit.FromDetail, s.Recruit.StillEmpty)
	fmt.Fprintf(w, "  applied: detail=%d empty=%d (tried %d)\n",
		s.Applied.FromDetail, s.Applied.StillEmpty, s.TriedDetail)
}

// snapshotSummary is the JSON form of the show command.
type snapshotSummary struct {
	UpdatedAt string           `json:"updated_at"`
	RunID     string           `json:"run_id,omitempty"`
	Count     int              `json:"count"`
	Stat      listing.Stat     `json:"stat"`
	Items     []listing.Record `json:"items,omitempty"`
}

// WriteSnapshot writes a summary of snap. At most limit records are listed;
// limit 0 lists all of them.
func WriteSnapshot(w io.Writer, snap *listing.Snapshot, format OutputFormat, verbose bool, limit int) error {
	items := snap.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, snapshotSummary{
			UpdatedAt: snap.UpdatedAt,
			RunID:     snap.RunID,
			Count:     snap.Count,
			Stat:      snap.Stat,
			Items:     items,
		})
	case FormatText:
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if snap.Count == 0 {
		fmt.Fprintln(w, "No listings in snapshot.")
		return nil
	}

	fmt.Fprintf(w, "Snapshot updated %s: %d listings\n", snap.UpdatedAt, snap.Count)
	writeStat(w, snap.Stat)
	fmt.Fprintln(w)
	for _, r := range items {
		fmt.Fprintf(w, "%s  %s  (%s/%s)\n", r.NoticeEnd, r.Title, orDash(r.Applied), orDash(r.Recruit))
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", r.ID)
			if r.Place != "" {
				fmt.Fprintf(w, "     Place: %s\n", r.Place)
			}
			if r.HostOrg != "" {
				fmt.Fprintf(w, "     Host: %s\n", r.HostOrg)
			}
		}
	}
	if len(items) < len(snap.Items) {
		fmt.Fprintf(w, "\n... %d more\n", len(snap.Items)-len(items))
	}
	return nil
}

// WriteCounts writes extracted headcounts
func WriteCounts(w io.Writer, c scraper.Counts, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, map[string]string{"recruit": c.Recruit, "applied": c.Applied})
	case FormatText:
		fmt.Fprintf(w, "recruit: %s\napplied: %s\n", orDash(c.Recruit), orDash(c.Applied))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
