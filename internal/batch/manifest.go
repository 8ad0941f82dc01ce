package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry summarizes one processed asset in the output manifest.
type ManifestEntry struct {
	Name     string   `json:"name"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Unmapped []string `json:"unmapped_bones,omitempty"`
	Output   string   `json:"output,omitempty"`
}

// WriteManifest writes manifest.json to the output directory.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		e := ManifestEntry{
			Name:     r.Name,
			Success:  r.Success,
			Error:    r.Error,
			Unmapped: r.Report.UnmappedBones,
		}
		for _, w := range r.Report.Warnings {
			e.Warnings = append(e.Warnings, w.Code+": "+w.Message)
		}
		if r.Success {
			e.Output = r.Name + ".json"
		}
		entries[i] = e
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
