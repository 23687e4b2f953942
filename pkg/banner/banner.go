package banner

import (
	"fmt"

	"msgdrop/pkg/config"
)

const banner = `
███╗   ███╗███████╗ ██████╗ ██████╗ ██████╗  ██████╗ ██████╗
████╗ ████║██╔════╝██╔════╝ ██╔══██╗██╔══██╗██╔═══██╗██╔══██╗
██╔████╔██║███████╗██║  ███╗██║  ██║██████╔╝██║   ██║██████╔╝
██║╚██╔╝██║╚════██║██║   ██║██║  ██║██╔══██╗██║   ██║██╔═══╝
██║ ╚═╝ ██║███████║╚██████╔╝██████╔╝██║  ██║╚██████╔╝██║
╚═╝     ╚═╝╚══════╝ ╚═════╝ ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚═╝
`

// Print renders the startup banner with the effective configuration and a
// few readiness checks an operator should see before pointing traffic here.
func Print(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Server.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config: %s\n", src)

	fmt.Println("\n== Examples ===================================================")
	fmt.Println("curl -X POST 'http://<host>:<port>/api/unlock' -d '{\"code\": \"0000\"}'")
	fmt.Println("curl -b cookies.txt 'http://<host>:<port>/api/chat/default?limit=50'")

	fmt.Println("\n== Production? =================================================")
	if eff.Config != nil {
		if eff.Config.Security.Unlock.Code != "" || eff.Config.Security.Unlock.CodeHash != "" {
			fmt.Println("- Unlock PIN: configured")
		} else {
			fmt.Println("- Unlock PIN: MISSING (set security.unlock.code_hash or MSGDROP_UNLOCK_CODE_HASH)")
		}
		if eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
			fmt.Println("- TLS: configured")
		} else {
			fmt.Println("- TLS: unconfigured (terminate TLS upstream or set server.tls)")
		}
		if eff.Config.Notify.Enabled {
			fmt.Println("- Notifications: enabled")
		} else {
			fmt.Println("- Notifications: disabled")
		}
		if eff.Config.Janitor.Enabled {
			fmt.Printf("- Janitor: enabled (cron=%s)\n", eff.Config.Janitor.Cron)
		} else {
			fmt.Println("- Janitor: disabled")
		}
	}
	if dbPath == "" {
		fmt.Println("- DB Path: not set (use --db or MSGDROP_DB_PATH)")
	}

	fmt.Println("\n== Logs: =================================================")
}
