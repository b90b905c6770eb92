package syncer

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DoYourThink/memos-sync/pkg/client"
)

// frontMatter is the YAML header written at the top of each memo file.
type frontMatter struct {
	UID        string    `yaml:"uid"`
	Memo       string    `yaml:"memo"`
	Visibility string    `yaml:"visibility,omitempty"`
	Pinned     bool      `yaml:"pinned,omitempty"`
	Tags       []string  `yaml:"tags,omitempty"`
	Created    time.Time `yaml:"created"`
	Updated    time.Time `yaml:"updated,omitempty"`
}

// AttachmentRef describes how one attachment turned out for a memo.
// LocalPath is empty when the download failed.
type AttachmentRef struct {
	Filename  string
	Type      string
	LocalPath string
}

// Render produces the Markdown document for one memo. Saved attachments
// are linked from the body; unavailable ones are listed by name so the
// reference is not lost.
func Render(memo client.Memo, attachments []AttachmentRef) ([]byte, error) {
	fm := frontMatter{
		UID:        memoUID(memo),
		Memo:       memo.Name,
		Visibility: memo.Visibility,
		Pinned:     memo.Pinned,
		Tags:       memo.Tags,
		Created:    memo.CreateTime,
		Updated:    memo.UpdateTime,
	}

	head, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(head)
	sb.WriteString("---\n\n")
	sb.WriteString(strings.TrimRight(memo.Content, "\n"))
	sb.WriteString("\n")

	if len(attachments) > 0 {
		sb.WriteString("\n")
		for _, ref := range attachments {
			switch {
			case ref.LocalPath == "":
				sb.WriteString(fmt.Sprintf("- missing attachment: %s\n", ref.Filename))
			case strings.HasPrefix(ref.Type, "image/"):
				sb.WriteString(fmt.Sprintf("![%s](%s)\n", ref.Filename, ref.LocalPath))
			default:
				sb.WriteString(fmt.Sprintf("[%s](%s)\n", ref.Filename, ref.LocalPath))
			}
		}
	}

	return []byte(sb.String()), nil
}

// FileName returns the stable file name for a memo: the creation date plus
// the memo's unique id.
func FileName(memo client.Memo) string {
	return fmt.Sprintf("%s-%s.md", memo.CreateTime.Format("2006-01-02"), memoUID(memo))
}

// memoUID prefers the explicit uid and falls back to the final segment of
// the resource name ("memos/{id}" in the v1 API).
func memoUID(memo client.Memo) string {
	if memo.UID != "" {
		return memo.UID
	}
	if idx := strings.LastIndex(memo.Name, "/"); idx >= 0 && idx < len(memo.Name)-1 {
		return memo.Name[idx+1:]
	}
	if memo.Name != "" {
		return memo.Name
	}
	return "unknown"
}
