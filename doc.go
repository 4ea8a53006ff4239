// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

/*
Package yamlconf loads application settings from a YAML file selected by the
deployment environment, promotes one settings section to environment variables
and writes updated settings back to the file keeping its comments and key
order.

	package main

	import (
	  "context"
	  "fmt"
	  "os"

	  "github.com/iph0/yamlconf"
	)

	func main() {
	  ctx := context.Background()

	  settings, err := yamlconf.New(ctx,
	    yamlconf.Options{
	      Environment: yamlconf.Prod,
	      Resolver:    yamlconf.NewResolver("/opt/myapp"),
	      Validators: []*yamlconf.Validator{
	        {Names: []string{"db.host"}, MustExist: true},
	        {Names: []string{"db.port"}, Default: 5432},
	      },
	    },
	  )

	  if err != nil {
	    fmt.Println("Loading failed:", err)
	    return
	  }

	  fmt.Println(os.Getenv("DB_USER"))

	  settings.Set("db.port", 6432)
	  err = settings.Save(ctx, "")

	  if err != nil {
	    fmt.Println("Saving failed:", err)
	  }
	}

With the resolver above the Prod environment is mapped to the file
/opt/myapp/config/prod.yaml:

	# Database connection
	db:
	  host: db.example.com
	  port: 5432 # pgbouncer

	ENV_VARIABLES:
	  DB_USER: app
	  DB_POOL: 10

Values of the ENV_VARIABLES section are set as environment variables DB_USER=app
and DB_POOL=10 on loading. If the section is missing, a warning is logged.
Settings.EnvVars returns the variables without touching the process
environment.

Only files with .yaml and .yml extensions are accepted, for reading and for
writing. Other extensions give ErrUnsupportedFileType before any file access.

Settings.Save merges current values into the file. Parameters absent from
settings keep their values and comments; new parameters are appended without
comments. If a parameter that was a scalar in the file becomes a map in
settings, the scalar and its comments are dropped.

Settings can be overridden by environment variables (see Options.EnvPrefix and
the envconf package) and read from remote storages (see Options.Storage and the
s3storage package).

yamlconf can also expand references in string values if Options.ExpandRefs is
set. Names of references are absolute:

	dirs:
	  root: /myapp
	  templates: "${dirs.root}/templates"

To escape expansion add one more "$" symbol: "$${dirs.root}". $ref directive
assigns value of one parameter to another:

	db:
	  defaultOptions: { timeout: 10 }
	  stat:
	    options: { $ref: db.defaultOptions }
	  metrics:
	    options: { $ref: { firstDefined: [db.metricsOptions, db.defaultOptions] } }

Top-level keys are case-sensitive.
*/
package yamlconf
