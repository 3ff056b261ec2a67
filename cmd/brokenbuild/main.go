// BrokenBuild is a deliberately failing fake build used to demo GopherDoctor:
//
//	gopherdoctor run -- brokenbuild
//
// Behaviour (tunable via env vars):
//   - FAILURE_MODE (compile|test|module|panic|random, default random): which
//     kind of failure to print.
//   - SUCCESS_RATE (float, 0–1, default 0): fraction of runs that succeed, to
//     show that successful builds stay silent.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"
)

// failures maps each mode to the output it prints and its exit code.
var failures = map[string]struct {
	stdout string
	stderr string
	code   int
}{
	"compile": {
		stderr: `# github.com/acme/widgets/internal/store
internal/store/cache.go:42:9: cannot use entry (variable of type *Entry) as Entry value in return statement
internal/store/cache.go:57:2: undefined: evictLocked
`,
		code: 1,
	},
	"test": {
		stdout: `=== RUN   TestCache_Evict
    cache_test.go:31: expected 2 entries after eviction, got 3
--- FAIL: TestCache_Evict (0.00s)
FAIL
FAIL	github.com/acme/widgets/internal/store	0.012s
`,
		stderr: "FAIL\n",
		code:   1,
	},
	"module": {
		stderr: `go: github.com/acme/widgets imports
	github.com/acme/telemetry/v2: github.com/acme/telemetry/v2@v2.3.0: verifying module: checksum mismatch
	downloaded: h1:Qp2yDdLVnU8G0Y0KzTqg7Q2uFf6x3wTzCk4xQ2r0a8I=
	go.sum:     h1:7uK1bYg9mNlF0wCz6T7nJ8pY3u0kRjv0QqU0mD9i4yQ=

SECURITY ERROR
This download does NOT match an earlier download recorded in go.sum.
`,
		code: 1,
	},
	"panic": {
		stderr: `panic: assignment to entry in nil map

goroutine 1 [running]:
github.com/acme/widgets/internal/codegen.(*Generator).register(...)
	/src/internal/codegen/gen.go:88
github.com/acme/widgets/internal/codegen.Run()
	/src/internal/codegen/gen.go:41 +0x5c
main.main()
	/src/cmd/gen/main.go:12 +0x1d
exit status 2
`,
		code: 2,
	},
}

var modes = []string{"compile", "test", "module", "panic"}

func main() {
	mode := envString("FAILURE_MODE", "random")
	successRate := envFloat("SUCCESS_RATE", 0)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if rng.Float64() < successRate {
		fmt.Println("ok  	github.com/acme/widgets/...	0.421s")
		return
	}
	if mode == "random" {
		mode = modes[rng.Intn(len(modes))]
	}

	f, ok := failures[mode]
	if !ok {
		slog.Error("unknown FAILURE_MODE", "mode", mode)
		os.Exit(64)
	}
	fmt.Fprint(os.Stdout, f.stdout)
	fmt.Fprint(os.Stderr, f.stderr)
	os.Exit(f.code)
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid env var, using default", "key", key, "value", v)
		return fallback
	}
	return f
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
