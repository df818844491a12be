// Package main provides a Dagger module for testing, packaging and running
// the verdict settlement service.
//
// Each binary (api, worker, db) ships as its own image. The Stack function
// wires the api and settlement workers to throwaway Postgres and Redis
// services so the full settlement path can be exercised end to end.
package main

import (
	"context"
	"dagger/verdict/internal/dagger"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	goImage       = "golang:1.24.2-alpine"
	runtimeImage  = "gcr.io/distroless/static-debian12:latest"
	postgresImage = "postgres:17-alpine"
	redisImage    = "redis:7-alpine"

	configMount = "/etc/verdict/config"
	apiPort     = 8080
)

// binaries lists the commands under ./cmd that are packaged as images.
var binaries = []string{"api", "worker", "db"}

type Verdict struct{}

// goContainer returns a Go toolchain container with the source mounted and
// module caches shared across calls.
func goContainer(src *dagger.Directory) *dagger.Container {
	return dag.Container().
		From(goImage).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("verdict-go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("verdict-go-build")).
		WithDirectory("/src", src).
		WithWorkdir("/src").
		WithEnvVariable("CGO_ENABLED", "0")
}

// Generate runs the enum generators and returns the refreshed source tree.
func (m *Verdict) Generate(
	// Source code directory
	// +required
	src *dagger.Directory,
) *dagger.Directory {
	return goContainer(src).
		WithExec([]string{"go", "generate", "./internal/..."}).
		Directory("/src")
}

// Test runs the unit test suite. Tests use in-process stores and miniredis
// so no backing services are needed.
func (m *Verdict) Test(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Package pattern to test
	// +optional
	// +default="./..."
	pkg string,
) (string, error) {
	if pkg == "" {
		pkg = "./..."
	}

	return goContainer(src).
		WithExec([]string{"go", "vet", pkg}).
		WithExec([]string{"go", "test", "-count=1", pkg}).
		Stdout(ctx)
}

// BuildContainer creates the image for one binary.
func (m *Verdict) BuildContainer(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Binary to package: "api", "worker" or "db"
	// +optional
	// +default="api"
	binary string,
	// Platform to build for
	// +optional
	// +default="linux/amd64"
	platform *dagger.Platform,
) (*dagger.Container, error) {
	if binary == "" {
		binary = "api"
	}
	if !slices.Contains(binaries, binary) {
		return nil, fmt.Errorf("unknown binary %q, expected one of %s", binary, strings.Join(binaries, ", "))
	}

	buildPlatform := dagger.Platform("linux/amd64")
	if platform != nil {
		buildPlatform = *platform
	}

	platformArch, err := dag.Containerd().ArchitectureOf(ctx, buildPlatform)
	if err != nil {
		return nil, fmt.Errorf("failed to get architecture: %w", err)
	}

	out := "/out/" + binary
	buildCtr := goContainer(src).
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("GOARCH", platformArch).
		WithExec([]string{"apk", "add", "--no-cache", "upx", "ca-certificates"}).
		WithExec([]string{"go", "build", "-trimpath", "-ldflags=-s -w", "-o", out, "./cmd/" + binary}).
		WithExec([]string{"upx", "--best", "--lzma", out})

	ctr := dag.Container(dagger.ContainerOpts{Platform: buildPlatform}).
		From(runtimeImage).
		WithFile("/app/bin/"+binary, buildCtr.File(out)).
		WithFile("/etc/ssl/certs/ca-certificates.crt", buildCtr.File("/etc/ssl/certs/ca-certificates.crt")).
		WithWorkdir("/app").
		WithEntrypoint([]string{"/app/bin/" + binary}).
		WithLabel("org.opencontainers.image.title", "verdict-"+binary)

	if binary == "api" {
		ctr = ctr.WithExposedPort(apiPort)
	}

	return ctr, nil
}

// Publish builds every binary image and pushes each one as
// <repository>-<binary>:<tag>. Returns the published references.
func (m *Verdict) Publish(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Image repository prefix (e.g. "ghcr.io/robalyx/verdict")
	// +required
	repository string,
	// Image tag
	// +optional
	// +default="latest"
	tag string,
	// Platforms to build for (comma-separated, e.g. "linux/amd64,linux/arm64")
	// +optional
	// +default="linux/amd64"
	platforms string,
) ([]string, error) {
	if tag == "" {
		tag = "latest"
	}

	var platformList []dagger.Platform
	for _, p := range strings.Split(platforms, ",") {
		if p = strings.TrimSpace(p); p != "" {
			platformList = append(platformList, dagger.Platform(p))
		}
	}
	if len(platformList) == 0 {
		platformList = []dagger.Platform{"linux/amd64"}
	}

	refs := make([]string, 0, len(binaries))
	for _, binary := range binaries {
		variants := make([]*dagger.Container, 0, len(platformList))
		for _, platform := range platformList {
			ctr, err := m.BuildContainer(ctx, src, binary, &platform)
			if err != nil {
				return nil, fmt.Errorf("failed to build %s for %s: %w", binary, platform, err)
			}
			variants = append(variants, ctr)
		}

		ref, err := dag.Container().Publish(ctx, fmt.Sprintf("%s-%s:%s", repository, binary, tag), dagger.ContainerPublishOpts{
			PlatformVariants: variants,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to publish %s: %w", binary, err)
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// Postgres returns a throwaway Postgres service with the verdict database.
func (m *Verdict) Postgres() *dagger.Service {
	return dag.Container().
		From(postgresImage).
		WithEnvVariable("POSTGRES_USER", "postgres").
		WithEnvVariable("POSTGRES_PASSWORD", "postgres").
		WithEnvVariable("POSTGRES_DB", "verdict").
		WithExposedPort(5432).
		AsService()
}

// Redis returns a throwaway Redis service for the event streams.
func (m *Verdict) Redis() *dagger.Service {
	return dag.Container().
		From(redisImage).
		WithExposedPort(6379).
		AsService()
}

// withBackends binds Postgres and Redis under the host names "postgres" and
// "redis" and mounts the config directory. The mounted common.toml must point
// its postgresql and redis hosts at those names.
func withBackends(ctr *dagger.Container, configDir *dagger.Directory, pg, rd *dagger.Service) *dagger.Container {
	return ctr.
		WithServiceBinding("postgres", pg).
		WithServiceBinding("redis", rd).
		WithDirectory(configMount, configDir)
}

// Migrate applies pending migrations against the given database service.
func (m *Verdict) Migrate(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Config directory mounted at /etc/verdict/config
	// +required
	configDir *dagger.Directory,
	// Postgres service; a throwaway one is started when omitted
	// +optional
	postgres *dagger.Service,
) (string, error) {
	if postgres == nil {
		postgres = m.Postgres()
	}

	db, err := m.BuildContainer(ctx, src, "db", nil)
	if err != nil {
		return "", err
	}

	return withBackends(db, configDir, postgres, m.Redis()).
		WithExec([]string{"/app/bin/db", "migrate"}).
		Stdout(ctx)
}

// Stack runs the api with settlement workers against fresh backends and
// returns the api as a service on port 8080.
func (m *Verdict) Stack(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Config directory mounted at /etc/verdict/config
	// +required
	configDir *dagger.Directory,
	// Number of settlement workers
	// +optional
	// +default=1
	workers int,
) (*dagger.Service, error) {
	if workers < 1 {
		workers = 1
	}

	pg := m.Postgres()
	rd := m.Redis()

	if _, err := m.Migrate(ctx, src, configDir, pg); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	worker, err := m.BuildContainer(ctx, src, "worker", nil)
	if err != nil {
		return nil, err
	}
	workerSvc := withBackends(worker, configDir, pg, rd).
		WithDefaultArgs([]string{"/app/bin/worker", "--workers", strconv.Itoa(workers), "settlement"}).
		AsService()

	api, err := m.BuildContainer(ctx, src, "api", nil)
	if err != nil {
		return nil, err
	}

	// Binding the worker starts it alongside the api.
	return withBackends(api, configDir, pg, rd).
		WithServiceBinding("worker", workerSvc).
		WithDefaultArgs([]string{"/app/bin/api"}).
		AsService(), nil
}

// Run executes one command of a binary against fresh backends, for example
// "db status" or "db needs-review --limit 20".
func (m *Verdict) Run(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Config directory mounted at /etc/verdict/config
	// +required
	configDir *dagger.Directory,
	// Binary to run: "api", "worker" or "db"
	// +required
	binary string,
	// Arguments passed to the binary
	// +optional
	args []string,
) (*dagger.Container, error) {
	ctr, err := m.BuildContainer(ctx, src, binary, nil)
	if err != nil {
		return nil, err
	}

	return withBackends(ctr, configDir, m.Postgres(), m.Redis()).
		WithExec(append([]string{"/app/bin/" + binary}, args...)), nil
}
