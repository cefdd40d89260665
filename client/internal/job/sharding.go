package job

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// shardLabels bounds metric cardinality regardless of how many logbooks a
// process uploads to.
const shardLabels = 32

// ShardLabel maps a station callsign to a stable metric label in [0,31].
// Callsigns are compared case-insensitively.
func ShardLabel(stationCallsign string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToUpper(strings.TrimSpace(stationCallsign))))
	return strconv.FormatUint(uint64(h.Sum32()%shardLabels), 10)
}
