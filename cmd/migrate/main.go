package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/actionlink/internal/config"
	migrations "github.com/dropDatabas3/actionlink/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (env ACTIONLINK_* overrides it)")
		dir        = flag.String("dir", "", "Migrations directory on disk; empty uses the embedded set")
	)
	flag.Parse()
	_ = godotenv.Load()

	// Positional args: [action] [arg]
	action := "up"
	args := flag.Args()
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	arg := ""
	if len(args) >= 2 {
		arg = args[1]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		log.Fatalf("postgres.dsn is empty (set ACTIONLINK_POSTGRES_DSN)")
	}

	var src fs.FS = migrations.FS
	if *dir != "" {
		src = os.DirFS(*dir)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	switch action {
	case "up", "down":
		steps := 0
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			steps = n
		}
		files, err := listSQL(src, "_"+action+".sql")
		if err != nil {
			log.Fatalf("list %s: %v", action, err)
		}
		if len(files) == 0 {
			log.Printf("No *_%s.sql migrations found. Nothing to do.", action)
			return
		}
		sort.Strings(files)
		if action == "down" {
			reverseInPlace(files) // más recientes primero
		}
		if steps > 0 && steps < len(files) {
			files = files[:steps]
		}
		log.Printf("Applying %d %s migration(s)...", len(files), action)
		for _, f := range files {
			if err := execSQLFile(ctx, pool, src, f); err != nil {
				log.Fatalf("exec %s: %v", f, err)
			}
		}
		log.Printf("%s migrations completed.", strings.ToUpper(action[:1])+action[1:])

	case "prune":
		// Emails pendientes abandonados (el link nunca se abrió).
		age := 24 * time.Hour
		if arg != "" {
			if age, err = time.ParseDuration(arg); err != nil {
				log.Fatalf("prune age: %v", err)
			}
		}
		tag, err := pool.Exec(ctx, `DELETE FROM pending_signin_email WHERE updated_at < now() - $1::interval`, fmt.Sprintf("%d seconds", int64(age.Seconds())))
		if err != nil {
			log.Fatalf("prune: %v", err)
		}
		log.Printf("Pruned %d pending email(s) older than %s.", tag.RowsAffected(), age)

	default:
		log.Fatalf("unknown action %q. Use: up | down [steps] | prune [age]", action)
	}
}

func listSQL(src fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}

func execSQLFile(ctx context.Context, pool *pgxpool.Pool, src fs.FS, name string) error {
	b, err := fs.ReadFile(src, name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	start := time.Now()
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}
