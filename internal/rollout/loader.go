package rollout

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Fields a trace line must carry to load as a record. sample_id, scores and
// stop_reason are legitimately optional.
var requiredFields = []string{
	"timestamp",
	"step",
	"selection_type",
	"conversation",
	"token_counts",
	"individual_rewards",
	"total_reward",
	"renderer_name",
	"sample_info",
}

// maxLineBytes bounds a single trace line. Long multi-turn conversations
// run to megabytes, so this is generous.
const maxLineBytes = 64 * 1024 * 1024

// Load reads the trace file from scratch into typed records. A missing
// file is zero records, not an error. Malformed lines -- including a
// truncated final line still being written by the curator -- are skipped
// with a debug log entry. Each returned record's Index is its position
// among successfully parsed lines.
func Load(path string, log *zap.Logger) ([]Record, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			log.Debug("skipping malformed trace line",
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}

		rec.Index = len(records)
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace file: %w", err)
	}

	return records, nil
}

func parseLine(line []byte) (Record, error) {
	// First pass checks field presence; required fields absent from the
	// object fail the line the same way a parse error does.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, err
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return Record{}, fmt.Errorf("missing required field %q", field)
		}
	}

	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
