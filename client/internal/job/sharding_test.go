package job

import (
	"strconv"
	"testing"
)

func TestShardLabel_DeterministicAndRange(t *testing.T) {
	t.Parallel()
	for _, call := range []string{"", "K1ABC", "W1AW", "VE3/K1ABC/P", "dl1xyz"} {
		got := ShardLabel(call)
		if again := ShardLabel(call); again != got {
			t.Fatalf("ShardLabel not deterministic for %q: %s vs %s", call, got, again)
		}
		n, err := strconv.Atoi(got)
		if err != nil || n < 0 || n >= shardLabels {
			t.Fatalf("ShardLabel out of range for %q: %s", call, got)
		}
	}
}

func TestShardLabel_IgnoresCase(t *testing.T) {
	t.Parallel()
	if ShardLabel("k1abc") != ShardLabel(" K1ABC ") {
		t.Fatal("labels differ by case or padding")
	}
}
