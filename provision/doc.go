// Package provision implements the interactive setup: it prompts for the
// database credentials, writes the env file, checks that docker and
// docker-compose are installed and runs the compose build.
package provision
