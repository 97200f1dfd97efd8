package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Commands understood by the binary
var commands = map[string]bool{
	"serve":   true,
	"process": true,
	"merge":   true,
	"status":  true,
}

// ParseArguments converts the process arguments into a map of flags and values
func ParseArguments() map[string]string {
	return ParseArgs(os.Args[1:])
}

// ParseArgs converts arguments into a map of flags and values. The first known command
// is stored under "command".
func ParseArgs(argv []string) map[string]string {
	args := make(map[string]string)

	commandIndex := -1
	for i, a := range argv {
		if commands[a] {
			args["command"] = a
			commandIndex = i
			break
		}
	}

	for i := 0; i < len(argv); i++ {
		if i == commandIndex {
			continue
		}

		arg := argv[i]

		// --key=value
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			args[strings.TrimPrefix(parts[0], "--")] = parts[1]
			continue
		}

		// --key value, or a bare boolean flag
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")
			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") || i+1 == commandIndex {
				args[flagName] = "true"
			} else {
				args[flagName] = argv[i+1]
				i++
			}
		}
	}

	return args
}

// GetDefaultConfigPath returns photobatch.yaml next to the executable when it exists
func GetDefaultConfigPath() string {
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}
	path := filepath.Join(filepath.Dir(exePath), "photobatch.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// SplitList splits a comma separated flag value, dropping empty items
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatFileSize renders a byte count in binary units
func FormatFileSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s serve [--config=PATH] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s process --folder=PATH [--max-size=N] [--quality=N] [--sort-by=KEY] [--sort-order=asc|desc] [--output-format=FMT] [--progressive] [--auto-rotate=BOOL] [--preserve-exif=BOOL] [--keep-original]\n", os.Args[0])
	fmt.Printf("  %s merge --sessions=ID,ID[,...]\n", os.Args[0])
	fmt.Printf("  %s status --session=ID\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --config        : Path to a YAML config file (default: photobatch.yaml next to the binary)\n")
	fmt.Printf("  --folder        : Folder with JPEG images to process\n")
	fmt.Printf("  --max-size      : Longest edge in pixels (100-4000, default: 800)\n")
	fmt.Printf("  --quality       : JPEG quality (50-100, default: 85)\n")
	fmt.Printf("  --sort-by       : exif_date, file_date or filename (default: exif_date)\n")
	fmt.Printf("  --sort-order    : asc or desc (default: asc)\n")
	fmt.Printf("  --output-format : original, numbered or dated (default: original)\n")
	fmt.Printf("  --sessions      : Comma separated session ids to merge\n")
	fmt.Printf("  --session       : Session id to inspect\n")
	fmt.Printf("  --debug         : Enable debug logging\n")
	fmt.Printf("  --logfile       : Also write logs to this file (rotated)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s serve --config=/etc/photobatch.yaml\n", os.Args[0])
	fmt.Printf("  %s process --folder=/path/to/photos --max-size=1600 --output-format=numbered\n", os.Args[0])
	fmt.Printf("  %s merge --sessions=img_1a2b,img_3c4d\n", os.Args[0])
}
