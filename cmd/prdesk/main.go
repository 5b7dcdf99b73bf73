package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prdesk/prdesk/internal/app"
	"github.com/prdesk/prdesk/internal/credential"
	"github.com/prdesk/prdesk/internal/intake/email"
	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/notify"
	"github.com/prdesk/prdesk/internal/store"
	appsync "github.com/prdesk/prdesk/internal/sync"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	setIntakePassword := flag.String("set-intake-password", "", "store the intake IMAP password in the system keyring and exit")
	clearIntakePassword := flag.Bool("clear-intake-password", false, "remove the intake IMAP password from the system keyring and exit")
	flag.Parse()

	if *setIntakePassword != "" {
		if err := credential.Set(credential.IntakePasswordKey, *setIntakePassword); err != nil {
			fmt.Fprintf(os.Stderr, "prdesk: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("intake password stored")
		return
	}
	if *clearIntakePassword {
		if err := credential.Delete(credential.IntakePasswordKey); err != nil {
			fmt.Fprintf(os.Stderr, "prdesk: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("intake password removed")
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "prdesk: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	// First run: materialize the defaults so there is a file to edit.
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		if saveErr := model.SaveConfig(configPath, cfg); saveErr != nil {
			log.Printf("writing default config: %v", saveErr)
		}
	}

	cs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cs.Close()

	stores := app.Stores{
		Tasks:         store.NewTaskStore(cs),
		Notifications: store.NewNotificationStore(cs),
		Members:       store.NewMemberStore(cs),
		Prefs:         store.NewPrefStore(cs),
	}

	deriver := &notify.Deriver{
		ResolveName: func(id string) string {
			return stores.Members.NameOf(context.Background(), id)
		},
	}

	watcher := appsync.New(
		stores.Tasks,
		stores.Notifications,
		stores.Prefs,
		deriver,
		cfg.Notify.DueSoonThresholdDays,
		time.Duration(cfg.Notify.DueScanIntervalSec)*time.Second,
	)

	if cfg.Intake.Enabled {
		if intake := buildIntake(cfg, stores.Tasks); intake != nil {
			intake.Start()
			defer intake.Stop()
		}
	}

	program := tea.NewProgram(
		app.New(stores, watcher, cfg.Notify.DueSoonThresholdDays),
		tea.WithAltScreen(),
	)
	_, err = program.Run()
	watcher.Stop()
	return err
}

// openStore selects the collection store backend from configuration.
func openStore(cfg *model.AppConfig) (store.CollectionStore, error) {
	switch cfg.Store.Backend {
	case model.StoreBackendMongo:
		return store.NewMongoStore(
			context.Background(),
			cfg.Store.MongoURI,
			cfg.Store.MongoDatabase,
			time.Duration(cfg.Store.PollIntervalSec)*time.Second,
		)
	case model.StoreBackendSQLite, "":
		return store.NewSQLiteStore(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildIntake assembles the email intake when it is fully configured.
// The IMAP password comes from the system keyring.
func buildIntake(cfg *model.AppConfig, tasks *store.TaskStore) *email.Intake {
	if cfg.Intake.IMAPHost == "" || cfg.Intake.Username == "" {
		log.Println("email intake enabled but not configured; skipping")
		return nil
	}
	password, err := credential.Get(credential.IntakePasswordKey)
	if err != nil || password == "" {
		log.Printf("email intake: no credential in keyring (%v); skipping", err)
		return nil
	}

	client := email.NewIMAPClient(
		cfg.Intake.IMAPHost,
		cfg.Intake.IMAPPort,
		cfg.Intake.Username,
		password,
		cfg.Intake.Mailbox,
		cfg.Intake.UseTLS,
	)
	return email.NewIntake(client, tasks, time.Duration(cfg.Intake.PollIntervalSec)*time.Second)
}
