package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mercury-protocol/ceres/internal/core"
	"github.com/mercury-protocol/ceres/internal/store"
)

// CollectorsRepoURL is the registry repository collectors are submitted to.
const CollectorsRepoURL = "https://github.com/mercury-protocol/mcy-data-collectors.git"

// WritePRMarkdown renders the PR.md body for a submission.
func WritePRMarkdown(w io.Writer, p store.PRInfo) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "Image ID: %s\n\n", p.ImageID)
	fmt.Fprintf(&b, "Contact email: %s\n\n", p.Email)
	if p.SourceCode != "" {
		fmt.Fprintf(&b, "Source code: %s\n\n", p.SourceCode)
	}

	sections := []struct{ title, body string }{
		{"Collector-verifier description:", p.Description},
		{"Data to be collected: type, structure, file format, size, etc.:", p.DataDescription},
		{"Data will be collected from:", p.DataSource},
		{"This data is worth collecting because:", p.DataUsefulness},
		{"Explanation of code:", p.CodeExplanation},
	}
	for i, s := range sections {
		fmt.Fprintf(&b, "## %s\n%s\n", s.title, s.body)
		if i < len(sections)-1 {
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// CollectorEntry renders the data-collectors.md entry for a submission.
// The "Full PR text" link is filled in by the registry maintainers.
func CollectorEntry(p store.PRInfo, id string) string {
	return fmt.Sprintf("---\n\n# %s\n**ID**: %s\n**Image ID**: %s\n**Source code**: %s\n**Full PR text**: \n**Description**: %s\n",
		p.Name, id, p.ImageID, p.SourceCode, p.Description)
}

// WriteNextSteps tells the user how to submit the PR after new-pr.
func WriteNextSteps(w io.Writer, projectDir string) error {
	_, err := fmt.Fprintf(w, `Next steps:
1. git clone %s
2. cd mcy-data-collectors && %s
3. Push your changes and open a pull request with the contents of PR.md
`, CollectorsRepoURL, core.ShellJoin("ceres", "add-pr", projectDir))
	return err
}
