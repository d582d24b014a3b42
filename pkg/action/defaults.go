package action

import "github.com/macropower/foldex/pkg/execs"

// Defaults returns the built-in actions for the given GOOS.
func Defaults(goos string) []*Action {
	opener := "xdg-open"
	explorer := "xdg-open"
	code := "code"

	switch goos {
	case "darwin":
		opener = "open"
		explorer = "open"
	case "windows":
		opener = "rundll32 url.dll,FileProtocolHandler"
		explorer = "explorer"
		code = "cmd /C code"
	}

	return []*Action{
		{
			ID:      "open_vscode",
			Label:   "Open in VS Code",
			Accepts: []TargetKind{KindFile, KindFolder},
			Command: execs.Command{Command: code},
		},
		{
			ID:      "open_explorer",
			Label:   "Show in file manager",
			Accepts: []TargetKind{KindFolder},
			Command: execs.Command{Command: explorer},
		},
		{
			ID:      "open_default",
			Label:   "Open with default application",
			Accepts: []TargetKind{KindFile, KindFolder},
			Command: execs.Command{Command: opener},
		},
	}
}
