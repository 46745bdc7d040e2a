package repl

import "strings"

func (r *REPL) cmdHelp(out *strings.Builder) {
	out.WriteString(`Commands:
  help                     Show this help
  show                     Show the current criteria
  set key=value ...        Set criteria for the next run
  clear [key ...]          Clear named criteria, or all of them
  run [key=value ...]      Apply any settings given, then run
  stats                    Record and level tallies, covered time span
  exit                     Exit the REPL

Criteria keys:
  level=NAME[,NAME...]     Match records whose level is any of the names
  keyword=TEXT             Match records containing TEXT (repeatable)
  thread=TEXT              Match records whose thread contains TEXT
  since=TIME               Keep records at or after TIME
  until=TIME               Keep records at or before TIME
  case=BOOL                Case-sensitive keyword and thread matching
  before=N                 Records of leading context around each match
  after=N                  Records of trailing context around each match
  context=N                Shorthand for before=N after=N

TIME accepts the timestamp forms records use, a bare date, or epoch
milliseconds.

Examples:
  set level=error,warn keyword=timeout
  run context=2
  clear keyword
`)
}
