package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReadAll reads every TickRecord from a replay log file, in tick order.
func ReadAll(path string) ([]TickRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: opening %s: %w", path, err)
	}
	defer f.Close()

	var records []TickRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec TickRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("replay: parsing record in %s: %w", path, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay: reading %s: %w", path, err)
	}
	return records, nil
}
