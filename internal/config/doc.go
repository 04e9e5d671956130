// Package config loads the project file of a pipeliner workspace.
//
// The project file is HCL. Every block is optional and every attribute falls
// back to the value in Defaults:
//
//	pipeline {
//	  name        = "apoferritin"
//	  project_dir = env.PROJECT
//	  file        = "default_pipeline.star"
//	  marker_dir  = ".Nodes"
//	}
//
//	log {
//	  level  = "debug"
//	  format = "json"
//	}
//
//	watch {
//	  interval         = "30s"
//	  healthcheck_port = 8080
//	}
//
// Expressions may refer to `env` (the process environment as an object) and
// `cwd` (the working directory at load time). When several files are loaded,
// attributes set by a later file override those of an earlier one.
package config
