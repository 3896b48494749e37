package main

import (
	"context"
	"flag"
	"fmt"
	"hugoquiz/internal/config"
	"hugoquiz/internal/logger"
	"hugoquiz/internal/model"
	"hugoquiz/internal/quiz"
	"hugoquiz/internal/service"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	n := flag.Int("n", 1, "number of participants to simulate")
	choice := flag.String("choice", "random", "answer policy: left, right or random")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for random forms and choices")
	flag.Parse()

	if *choice != "random" {
		if _, err := model.ParseChoice(*choice); err != nil {
			fmt.Fprintln(os.Stderr, "invalid -choice:", err)
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log, err := logger.New(false, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	sim := &simulator{
		controller: quiz.NewController(service.NewQuestionnaireClient(cfg.APIConfig, log)),
		rng:        rand.New(rand.NewSource(*seed)),
		choice:     *choice,
	}

	ctx := context.Background()
	failed := 0
	for i := 0; i < *n; i++ {
		s, err := sim.run(ctx)
		if err != nil {
			failed++
			log.Error("participant failed", zap.Int("run", i+1), zap.Error(err))
			continue
		}
		log.Info("participant done",
			zap.Int("run", i+1),
			zap.String("participant_id", s.ParticipantID.String()),
			zap.Int("answers", s.Total()),
		)
	}

	fmt.Printf("%d/%d participants completed against %s\n", *n-failed, *n, cfg.BaseURL)
	if failed > 0 {
		os.Exit(1)
	}
}

type simulator struct {
	controller *quiz.Controller
	rng        *rand.Rand
	choice     string
}

// run walks one participant from the welcome form to the thank-you page
func (s *simulator) run(ctx context.Context) (*model.Session, error) {
	session := model.NewSession(uuid.NewString(), time.Now())
	if err := s.controller.SubmitParticipant(ctx, session, s.form()); err != nil {
		return nil, err
	}
	for session.State == model.StateInQuiz {
		if _, err := s.controller.Advance(ctx, session, s.pick()); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *simulator) form() model.ParticipantForm {
	ages := model.AgeOptions()
	levels := model.EducationOptions()
	familiarity := model.FamiliarityOptions()
	return model.ParticipantForm{
		Age:                     ages[s.rng.Intn(len(ages))],
		Education:               levels[s.rng.Intn(len(levels))],
		HugoStyleFamiliarity:    familiarity[s.rng.Intn(len(familiarity))],
		StudiedFrenchLiterature: s.rng.Intn(2) == 0,
	}
}

func (s *simulator) pick() string {
	if s.choice != "random" {
		return s.choice
	}
	if s.rng.Intn(2) == 0 {
		return string(model.ChoiceLeft)
	}
	return string(model.ChoiceRight)
}
