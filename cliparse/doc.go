// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse parses server configuration from CLI flags and
environment variables. CLI flags win over environment variables.

Settings:

  - PORT (-p): server port (default: 3011)
  - DATABASE_URL (-d): PostgreSQL connection string (required)
  - TOKEN_SECRET (-token-secret): session token signing secret (required)
  - SEED_FILE (-seed): optional catalog seed file loaded at startup

A .env file in the working directory is loaded by main before parsing,
so local development can keep settings out of the shell.
*/
package cliparse
