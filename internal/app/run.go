package app

import (
	"context"
	"fmt"

	"github.com/vk/matrixgen/internal/config"
	"github.com/vk/matrixgen/internal/ctxlog"
	"github.com/vk/matrixgen/internal/emit"
	"github.com/vk/matrixgen/internal/graph"
	"github.com/vk/matrixgen/internal/matrix"
	"github.com/vk/matrixgen/internal/naming"
	"github.com/vk/matrixgen/internal/resolve"
	"github.com/vk/matrixgen/internal/synth"
)

// Run executes one generation pass and then either verifies the committed
// document (check mode), writes the output, or keeps regenerating on spec
// changes (watch mode).
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	document, err := a.generate(ctx)
	if err != nil {
		return err
	}

	if a.config.Check {
		if err := emit.Check(a.config.OutPath, document); err != nil {
			return err
		}
		a.logger.Info("Committed document is up to date.", "path", a.config.OutPath)
		return nil
	}

	if err := emit.Write(a.config.OutPath, document); err != nil {
		return fmt.Errorf("write workflow document: %w", err)
	}
	a.logger.Info("Workflow document written.", "path", a.config.OutPath, "bytes", len(document))

	if a.config.Watch {
		return a.watch(ctx)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// generate runs the full pipeline: load, expand, resolve, synthesize,
// validate, emit. All errors are detected here, before any output exists;
// there is no partial-success document.
func (a *App) generate(ctx context.Context) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)

	model, err := a.loader.Load(ctx, a.config.SpecPath)
	if err != nil {
		return nil, fmt.Errorf("load matrix specification: %w", err)
	}

	cells, err := matrix.Expand(ctx, model.Axes, model.Excludes)
	if err != nil {
		return nil, err
	}
	logger.Debug("Matrix expanded.", "cells", len(cells))

	required := model.RequiredKeys()
	configs := make([]resolve.Config, 0, len(cells))
	for _, cell := range cells {
		cfg, err := resolve.Resolve(ctx, cell, model.GlobalDefaults, model.PlatformDefaults, required)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	jobs, err := synth.Plan(ctx, cells, configs, synth.Inputs{
		BuildTemplate: model.Templates[config.TemplateBuild],
		TestTemplate:  model.Templates[config.TemplateTest],
		Condition:     model.Workflow.Condition,
	})
	if err != nil {
		return nil, err
	}

	pipeline := graph.NewPipeline(
		model.Workflow.Name,
		model.Workflow.Trigger,
		model.Workflow.Env,
		naming.Expression(model.Workflow.Name),
	)
	for _, job := range jobs {
		if err := pipeline.Add(job); err != nil {
			return nil, err
		}
	}
	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("error validating job graph: %w", err)
	}
	logger.Debug("Job graph built and validated.", "jobs", pipeline.Len())

	return emit.Emit(pipeline)
}
