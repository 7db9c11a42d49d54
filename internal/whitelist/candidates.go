package whitelist

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/popchain/popchain-core/internal/txbuilder"
)

// ParseCandidates reads the first field of every record. Blank records and a
// leading header row are skipped; malformed addresses are kept so the run
// can count them as failed.
func ParseCandidates(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var lines []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read candidates")
		}
		if len(record) == 0 {
			continue
		}
		field := strings.TrimSpace(record[0])
		if field == "" {
			continue
		}
		if first {
			first = false
			if isHeader(field) {
				continue
			}
		}
		lines = append(lines, field)
	}
	return lines, nil
}

func isHeader(field string) bool {
	return !txbuilder.ValidEmail(field) && strings.Contains(strings.ToLower(field), "mail")
}
