package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/programme-lv/benchrunner/internal/proc"
)

const (
	buildLogName = "build.log"
	runLogName   = "run.log"
)

// writeStageLog persists the issued command line, captured output, and final
// exit code of one stage. via names the indirection used to run the project,
// when any.
func (p *Pipeline) writeStageLog(dir, name, via string, argv []string, res *proc.Result) {
	var b strings.Builder
	if via != "" {
		fmt.Fprintf(&b, "[via] %s\n\n", via)
	}
	fmt.Fprintf(&b, "$ %s\n\n", shellJoin(argv))
	fmt.Fprintf(&b, "[stdout]\n%s\n\n[stderr]\n%s\n\n[exit] %d\n", res.Stdout, res.Stderr, res.ExitCode)
	p.writeLogFile(dir, name, []byte(b.String()))
}

// writeNotice records why a stage produced no output.
func (p *Pipeline) writeNotice(dir, name, notice string) {
	p.writeLogFile(dir, name, []byte(notice))
}

func (p *Pipeline) writeLogFile(dir, name string, data []byte) {
	if err := writeLog(dir, name, data, p.cfg.CompressLogs); err != nil {
		// a lost log never fails the project
		p.log.Error("failed to write stage log", "dir", dir, "name", name, "err", err)
	}
}

func writeLog(dir, name string, data []byte, compress bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if !compress {
		return os.WriteFile(filepath.Join(dir, name), data, 0644)
	}

	f, err := os.Create(filepath.Join(dir, name+".zst"))
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// shellJoin renders argv the way a user could paste it back into a shell.
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$&|;<>()*?[]#~") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
