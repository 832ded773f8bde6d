// Package pipeline turns one screenshot into one generated image.
//
// Each file moves through a fixed sequence of stages:
//
//	detected -> ready -> analyzing -> generating -> downloading -> deleting -> done
//
// with failed as the exit from any stage that cannot continue. A file that
// does not settle within the readiness timeout stays in detected and is
// expected to be retried by the caller. Vision failures are soft: the run
// continues with a fallback prompt. Generation and download failures end
// the run. Failing to delete the source does not: the run is done and the
// source is reported as left behind.
//
// The pipeline never retries across runs. Callers (the watcher, the CLI)
// decide whether a path gets another chance.
package pipeline
