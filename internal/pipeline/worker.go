package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lexforge/manualqa/internal/cache"
	"github.com/lexforge/manualqa/internal/docmodel"
	"github.com/lexforge/manualqa/internal/export"
	"github.com/lexforge/manualqa/internal/extract"
	"github.com/lexforge/manualqa/internal/pagesource"
	"github.com/lexforge/manualqa/internal/question"
	"github.com/lexforge/manualqa/internal/structure"
)

// Worker runs a single document through parse, rule extraction,
// question generation, validation, and CSV export.
type Worker struct {
	parser    *structure.Parser
	client    *extract.OpenAIClient
	generator *question.Generator
	validator *question.Validator
	store     *cache.Store
	log       *slog.Logger

	outputDir  string
	exportOpts export.Options

	maxConcurrentLLM int
}

func NewWorker(parser *structure.Parser, client *extract.OpenAIClient, store *cache.Store, log *slog.Logger, outputDir string, exportOpts export.Options, maxLLM int) *Worker {
	if maxLLM < 1 {
		maxLLM = 1
	}
	return &Worker{
		parser:           parser,
		client:           client,
		generator:        question.NewGenerator(client, log),
		validator:        question.NewValidator(client, log),
		store:            store,
		log:              log,
		outputDir:        outputDir,
		exportOpts:       exportOpts,
		maxConcurrentLLM: maxLLM,
	}
}

// sectionRules pairs a section with its extracted rules, in section
// order.
type sectionRules struct {
	section *docmodel.Section
	rules   []extract.Rule
}

// Process runs the full pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse the document into numbered sections.
	job.SetStatus(StatusParsing, "parsing")
	data := job.FileData()
	src, err := pagesource.ForReader(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	sections, err := w.parser.Parse(src, job.Prefix)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if len(sections) == 0 {
		log.Warn("no sections found", "prefix", job.Prefix)
		job.AddError("no numbered sections found")
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.ContentHash = ContentHashHex(data)
	job.SetTotalSections(len(sections))
	log.Info("parsed document", "sections", len(sections))

	// Phase 2: Extract rules per section with bounded concurrency.
	job.SetStatus(StatusExtracting, "extracting rules")
	ids := sections.SortedIDs()
	type extractResult struct {
		idx   int
		rules []extract.Rule
		err   error
	}
	results := make(chan extractResult, len(ids))
	sem := make(chan struct{}, w.maxConcurrentLLM)

	for i, id := range ids {
		sem <- struct{}{}
		go func(i int, sec *docmodel.Section) {
			defer func() { <-sem }()
			rules, err := w.extractRules(ctx, job, sec)
			results <- extractResult{idx: i, rules: rules, err: err}
		}(i, sections[id])
	}

	bySection := make([]sectionRules, len(ids))
	hadErrors := false
	for range ids {
		r := <-results
		job.IncrSectionsProcessed()
		if r.err != nil {
			log.Error("rule extraction failed", "section", ids[r.idx], "error", r.err)
			job.AddError(fmt.Sprintf("section %s: %s", ids[r.idx], r.err))
			hadErrors = true
			continue
		}
		bySection[r.idx] = sectionRules{section: sections[ids[r.idx]], rules: r.rules}
		job.AddRules(len(r.rules))
	}
	if ctx.Err() != nil {
		job.SetStatus(StatusFailed, "extracting rules")
		return
	}

	totalRules := 0
	for _, sr := range bySection {
		totalRules += len(sr.rules)
	}
	log.Info("rule extraction complete", "rules", totalRules, "errors", hadErrors)
	if totalRules == 0 {
		job.SetStatus(StatusFailed, "extracting rules")
		return
	}

	// Phase 3: Generate questions per rule, again bounded.
	job.SetStatus(StatusGenerating, "generating questions")
	type genInput struct {
		section   *docmodel.Section
		rule      extract.Rule
		ruleIndex int
	}
	var inputs []genInput
	for _, sr := range bySection {
		for i, rule := range sr.rules {
			inputs = append(inputs, genInput{section: sr.section, rule: rule, ruleIndex: i})
		}
	}

	genResults := make(chan []question.Question, len(inputs))
	for _, in := range inputs {
		sem <- struct{}{}
		go func(in genInput) {
			defer func() { <-sem }()
			qs, err := w.generateQuestions(ctx, job, in.section, in.rule, in.ruleIndex)
			if err != nil {
				log.Error("question generation failed",
					"section", in.rule.SourceSection, "rule", in.ruleIndex, "error", err)
				job.AddError(fmt.Sprintf("generate %s_r%d: %s", in.rule.SourceSection, in.ruleIndex, err))
			}
			genResults <- qs
		}(in)
	}

	var generated []question.Question
	for range inputs {
		qs := <-genResults
		if len(qs) == 0 {
			hadErrors = true
			continue
		}
		generated = append(generated, qs...)
	}
	if ctx.Err() != nil {
		job.SetStatus(StatusFailed, "generating questions")
		return
	}
	job.AddQuestions(len(generated), 0, 0)
	log.Info("generation complete", "questions", len(generated))
	if len(generated) == 0 {
		job.SetStatus(StatusFailed, "generating questions")
		return
	}

	// Phase 4: Validate. Only questions whose every component clears
	// the quality threshold survive.
	job.SetStatus(StatusValidating, "validating questions")
	type valResult struct {
		idx int
		res *question.ValidationResult
		err error
	}
	valResults := make(chan valResult, len(generated))
	for i := range generated {
		sem <- struct{}{}
		go func(i int) {
			defer func() { <-sem }()
			res, err := w.validateQuestion(ctx, job, &generated[i], sections)
			valResults <- valResult{idx: i, res: res, err: err}
		}(i)
	}

	var passed []question.Question
	for range generated {
		r := <-valResults
		if r.err != nil {
			log.Error("validation failed", "question", generated[r.idx].ID, "error", r.err)
			job.AddError(fmt.Sprintf("validate %s: %s", generated[r.idx].ID, r.err))
			hadErrors = true
			continue
		}
		generated[r.idx].Validation = r.res
		if r.res.Passes {
			passed = append(passed, generated[r.idx])
		} else {
			log.Info("question rejected", "question", generated[r.idx].ID, "reason", r.res.RejectedReason)
		}
	}
	if ctx.Err() != nil {
		job.SetStatus(StatusFailed, "validating questions")
		return
	}
	job.AddQuestions(0, len(generated), len(passed))
	log.Info("validation complete", "passed", len(passed), "of", len(generated))
	if len(passed) == 0 {
		job.SetStatus(StatusFailed, "validating questions")
		return
	}

	// Phase 5: Export the survivors as CSV.
	job.SetStatus(StatusExporting, "exporting")
	if err := w.exportCSV(job, passed); err != nil {
		log.Error("export failed", "error", err)
		job.AddError(fmt.Sprintf("export: %s", err))
		job.SetStatus(StatusFailed, "exporting")
		return
	}

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// cacheKey scopes a key to this document so two manuals with the same
// section numbering never share entries.
func (w *Worker) cacheKey(job *Job, id string) string {
	hash := job.ContentHash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return id + "_" + hash
}

// extractRules pulls rules for one section, going through the cache
// and retrying transient LLM failures.
func (w *Worker) extractRules(ctx context.Context, job *Job, sec *docmodel.Section) ([]extract.Rule, error) {
	key := w.cacheKey(job, sec.ID)
	if !job.IgnoreCache {
		var cached []extract.Rule
		if ok, err := w.store.Get(cache.CategoryRules, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var rules []extract.Rule
	var lastErr error
	for attempt := range MaxRetries {
		rules, lastErr = w.client.ExtractRules(ctx, sec)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable extraction error", "section", sec.ID, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	if err := w.store.Put(cache.CategoryRules, key, rules); err != nil {
		w.log.Warn("rule cache write failed", "section", sec.ID, "error", err)
	}
	return rules, nil
}

func (w *Worker) generateQuestions(ctx context.Context, job *Job, sec *docmodel.Section, rule extract.Rule, ruleIndex int) ([]question.Question, error) {
	key := w.cacheKey(job, fmt.Sprintf("%s_r%d", rule.SourceSection, ruleIndex))
	if !job.IgnoreCache {
		var cached []question.Question
		if ok, err := w.store.Get(cache.CategoryQuestions, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var qs []question.Question
	var lastErr error
	for attempt := range MaxRetries {
		qs, lastErr = w.generator.Generate(ctx, rule, ruleIndex, sec, nil)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil && len(qs) == 0 {
		return nil, lastErr
	}
	if err := w.store.Put(cache.CategoryQuestions, key, qs); err != nil {
		w.log.Warn("question cache write failed", "key", key, "error", err)
	}
	return qs, nil
}

func (w *Worker) validateQuestion(ctx context.Context, job *Job, q *question.Question, sections docmodel.SectionMap) (*question.ValidationResult, error) {
	key := w.cacheKey(job, q.ID)
	if !job.IgnoreCache {
		var cached question.ValidationResult
		if ok, err := w.store.Get(cache.CategoryValidation, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	var res *question.ValidationResult
	var lastErr error
	for attempt := range MaxRetries {
		res, lastErr = w.validator.Validate(ctx, q, sections)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	if err := w.store.Put(cache.CategoryValidation, key, res); err != nil {
		w.log.Warn("validation cache write failed", "key", key, "error", err)
	}
	return res, nil
}

func (w *Worker) exportCSV(job *Job, questions []question.Question) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.outputDir, job.ID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, questions, w.exportOpts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	job.SetArtifact(path)
	return nil
}
