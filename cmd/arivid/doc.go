// Command arivid generates narrated educational animation videos. The serve
// subcommand runs the background daemon; generate submits a job and waits for
// the result; status inspects the job store; config manages the TOML
// configuration file.
package main
