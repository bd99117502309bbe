package main

import (
	"context"
	"flag"
	"log/slog"

	"printflow/bot"
	"printflow/impl/core"
	"printflow/internal/config"
	repository "printflow/internal/database/mongo"
	"printflow/internal/http-server/api"
	"printflow/internal/lib/logger"
	"printflow/internal/lib/sl"
	"printflow/internal/services"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", slog.String("error", err.Error()))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelDebug)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")

			go func() {
				if err := tgBot.Start(); err != nil {
					lg.Error("telegram bot error", slog.String("error", err.Error()))
				}
			}()
		}
	}

	lg.Info("starting fulfillment service", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg, conf)

	mongo, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(sl.Err(err)).Error("mongo client")
	}
	if mongo != nil {
		handler.SetRepository(mongo)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	} else {
		lg.Error("order repository not initialized, nothing to process")
		return
	}

	printify, err := services.NewPrintifyService(conf, lg)
	if err != nil {
		lg.Error("printify service", sl.Err(err))
	} else {
		handler.SetProvider(printify)
		handler.SetMockupSource(printify)
		lg.Info("printify service initialized")
	}

	gelato, err := services.NewGelatoService(conf, lg)
	if err != nil {
		lg.Error("gelato service", sl.Err(err))
	} else {
		handler.SetProvider(gelato)
		lg.Info("gelato service initialized")
	}

	qikink, err := services.NewQikinkService(conf, lg)
	if err != nil {
		lg.Error("qikink service", sl.Err(err))
	} else {
		handler.SetProvider(qikink)
		handler.SetStatusPoller(qikink)
		lg.Info("qikink service initialized")
	}

	storage, err := services.NewStorageService(context.Background(), conf, lg)
	if err != nil {
		lg.Error("storage service", sl.Err(err))
	} else {
		handler.SetStorage(storage)
		defer storage.Close()
		lg.With(slog.String("bucket", conf.Storage.Bucket)).Info("storage service initialized")
	}

	renderer, err := services.NewRenderService(conf, lg)
	if err != nil {
		lg.Error("render service", sl.Err(err))
	} else {
		handler.SetRenderer(renderer)
		lg.Info("render service initialized")
	}

	pdf, err := services.NewPdfService(conf, lg)
	if err != nil {
		lg.Error("pdf service", sl.Err(err))
	} else {
		handler.SetPdfRenderer(pdf)
		lg.Info("pdf service initialized")
	}

	mail, err := services.NewMailService(conf, lg)
	if err != nil {
		lg.Error("mail service", sl.Err(err))
	} else {
		handler.SetMailer(mail)
		lg.Info("mail service initialized")
	}

	if tgBot != nil {
		tgBot.SetOrderReporter(handler)
	}

	handler.Start()
	defer handler.Stop()

	if err := api.New(conf, lg, handler); err != nil {
		lg.Error("api server", sl.Err(err))
	}

	lg.Error("service stopped")
}
