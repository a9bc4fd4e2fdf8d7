package main

import (
	"database/sql"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wiki73/P.I.B-bot/internal/dialog"
	"github.com/wiki73/P.I.B-bot/internal/handlers"
	"github.com/wiki73/P.I.B-bot/internal/repository"
	"github.com/wiki73/P.I.B-bot/internal/service"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		log.Info(".env file not found, using system environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Error("BOT_TOKEN not set")
		os.Exit(1)
	}

	db, err := openDatabase(log)
	if err != nil {
		log.Error("database connection", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}
	if err := repo.SeedBasePlans(); err != nil {
		log.Error("seed base plans", "err", err)
		os.Exit(1)
	}

	svc := service.NewService(repo, log)
	engine := dialog.NewEngine(svc, log)

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Error("bot initialization", "err", err)
		os.Exit(1)
	}
	bot.Debug = false
	log.Info("bot authorized", "username", bot.Self.UserName)

	handler := handlers.NewBotHandler(bot, engine, log)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := bot.GetUpdatesChan(u)
	log.Info("bot is running")

	for update := range updates {
		handler.HandleUpdate(update)
	}
}

// openDatabase connects to Postgres when DATABASE_URL is set and falls back
// to a local SQLite file otherwise, so the bot can run without a server.
func openDatabase(log *slog.Logger) (*sql.DB, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("connected to postgres")
		return db, nil
	}

	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "pib-bot.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("using sqlite database", "path", path)
	return db, nil
}
