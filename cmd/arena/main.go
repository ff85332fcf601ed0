package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AndreiDascalu/ANL2024/internal/model"
	"github.com/AndreiDascalu/ANL2024/internal/party"
	"github.com/AndreiDascalu/ANL2024/internal/repository/postgres"
	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

// matchResult summarizes one completed session.
type matchResult struct {
	Session   string  `json:"session"`
	EndedBy   string  `json:"ended_by"`
	Rounds    int     `json:"rounds"`
	UtilityA  float64 `json:"utility_a"`
	UtilityB  float64 `json:"utility_b"`
	Agreement bool    `json:"agreement"`
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		strategyA  string
		strategyB  string
		numMatches int
		workers    int
		seed       int64
		deadline   time.Duration
		maxRounds  int
		dbURL      string
		dryRun     bool
		jsonOut    bool
		profiling  bool
	)

	flag.StringVar(&strategyA, "a", "adaptive", "Strategy for party A")
	flag.StringVar(&strategyB, "b", "adaptive", "Strategy for party B")
	flag.IntVar(&numMatches, "n", 1, "Number of sessions to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel sessions)")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = random)")
	flag.DurationVar(&deadline, "deadline", 10*time.Second, "Time budget per session")
	flag.IntVar(&maxRounds, "rounds", 10000, "Round cap per session")
	flag.StringVar(&dbURL, "db", "", "Database URL (or use DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "Skip database writes")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.BoolVar(&profiling, "profile", false, "Write a CPU profile to the working directory")

	flag.Parse()

	if profiling {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	party.NeuralModelPath = os.Getenv("NEURAL_MODEL_PATH")

	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	var sessionRepo *postgres.SessionRepo
	var offerRepo *postgres.OfferRepo
	if !dryRun && dbURL != "" {
		db, err := postgres.Connect(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		sessionRepo = postgres.NewSessionRepo(db)
		offerRepo = postgres.NewOfferRepo(db)
	}

	// Short run label so all sessions of one invocation group together.
	runID := uuid.NewString()[:8]
	label := fmt.Sprintf("arena-%s: %s vs %s", runID, strategyA, strategyB)

	results := make([]*matchResult, numMatches)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	errCount := 0

	for i := 0; i < numMatches; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			matchSeed := seed
			if seed != 0 {
				matchSeed = seed + int64(idx)*2
			}

			name := fmt.Sprintf("%s #%d", label, idx+1)
			result, err := runMatch(ctx, name, strategyA, strategyB, matchSeed, deadline, maxRounds, sessionRepo, offerRepo)
			if err != nil {
				log.Error().Err(err).Int("match", idx+1).Msg("Match failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("match", idx+1).Str("endedBy", result.EndedBy).
				Int("rounds", result.Rounds).
				Float64("utilityA", result.UtilityA).Float64("utilityB", result.UtilityB).
				Msg("Match completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numMatches, errCount)
	} else {
		printSummary(results, strategyA, strategyB, errCount, label, sessionRepo != nil)
	}
}

// runMatch plays one session, optionally persisting it.
func runMatch(ctx context.Context, name, strategyA, strategyB string, seed int64, deadline time.Duration, maxRounds int, sessionRepo *postgres.SessionRepo, offerRepo *postgres.OfferRepo) (*matchResult, error) {
	profileA, profileB := negotiation.PartyProfiles()

	seedB := seed
	if seed != 0 {
		seedB = seed + 1
	}

	var sessionID string
	if sessionRepo != nil {
		session, err := sessionRepo.Create(ctx, name, strategyA, strategyB, time.Now().Add(deadline))
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		sessionID = session.ID
		if err := sessionRepo.SetActive(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	var pending []model.Offer
	engine := &negotiation.Engine{
		A:         party.ForStrategy(strategyA, seed),
		B:         party.ForStrategy(strategyB, seedB),
		IDA:       "A",
		IDB:       "B",
		ProfileA:  profileA,
		ProfileB:  profileB,
		Progress:  negotiation.NewProgress(time.Now(), deadline),
		MaxRounds: maxRounds,
	}
	if sessionRepo != nil {
		engine.Observer = func(t negotiation.Turn) {
			rec := model.Offer{SessionID: sessionID, Round: t.Round, Actor: t.Actor}
			var bid negotiation.Bid
			switch a := t.Action.(type) {
			case negotiation.Offer:
				rec.Kind = "offer"
				bid = a.Bid
			case negotiation.Accept:
				rec.Kind = "accept"
				bid = a.Bid
			}
			if bid != nil {
				rec.Bid, _ = json.Marshal(bid)
				rec.UtilityA = profileA.Utility(bid)
				rec.UtilityB = profileB.Utility(bid)
			}
			pending = append(pending, rec)
		}
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}

	if sessionRepo != nil {
		if err := offerRepo.Save(ctx, pending); err != nil {
			return nil, fmt.Errorf("save offers: %w", err)
		}
		var agreementJSON json.RawMessage
		if result.Agreement != nil {
			agreementJSON, _ = json.Marshal(result.Agreement)
		}
		if err := sessionRepo.SetFinished(ctx, sessionID, result.EndedBy, agreementJSON, result.UtilityA, result.UtilityB, result.Rounds); err != nil {
			return nil, fmt.Errorf("finish session: %w", err)
		}
	}

	return &matchResult{
		Session:   name,
		EndedBy:   result.EndedBy,
		Rounds:    result.Rounds,
		UtilityA:  result.UtilityA,
		UtilityB:  result.UtilityB,
		Agreement: result.Agreement != nil,
	}, nil
}

func printSummary(results []*matchResult, strategyA, strategyB string, errCount int, label string, saved bool) {
	completed := 0
	agreements := 0
	totalRounds := 0
	var totalA, totalB float64
	endReasons := make(map[string]int)

	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		totalRounds += r.Rounds
		totalA += r.UtilityA
		totalB += r.UtilityB
		endReasons[r.EndedBy]++
		if r.Agreement {
			agreements++
		}
	}

	fmt.Printf("\nResults (%d sessions, %s vs %s):\n", completed, strategyA, strategyB)
	if errCount > 0 {
		fmt.Printf("  (%d sessions failed)\n", errCount)
	}
	if completed == 0 {
		return
	}

	fmt.Printf("  agreements: %d/%d\n", agreements, completed)
	fmt.Printf("  avg rounds: %.1f\n", float64(totalRounds)/float64(completed))
	fmt.Printf("  avg utility: A (%s) %.3f, B (%s) %.3f\n",
		strategyA, totalA/float64(completed), strategyB, totalB/float64(completed))
	for reason, count := range endReasons {
		fmt.Printf("  ended by %s: %d\n", reason, count)
	}

	if saved {
		fmt.Printf("\nSessions saved to database under \"%s\"\n", label)
	}
}

func printJSON(results []*matchResult, total, errCount int) {
	out := struct {
		Total   int            `json:"total"`
		Errors  int            `json:"errors"`
		Results []*matchResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
