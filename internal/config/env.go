package config

import (
    "os"
    "strings"
    "time"

    "github.com/spf13/cast"
)

// Small env readers shared by every loader in this package.  Values that do
// not parse fall back to the default instead of aborting startup.

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }

func envBool(k string, d bool) bool {
    v := strings.TrimSpace(os.Getenv(k))
    if v == "" { return d }
    switch strings.ToLower(v) {
    case "yes", "on": return true
    case "no", "off": return false
    }
    b, err := cast.ToBoolE(v)
    if err != nil { return d }
    return b
}

func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := cast.ToIntE(v); err == nil { return n }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}

// envList splits a comma separated variable, trimming blanks.
func envList(k, d string) []string {
    var out []string
    for _, p := range strings.Split(envStr(k, d), ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
