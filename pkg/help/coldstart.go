package help

const ColdstartYAML = `# topic-scores Quick Start

input_format:
  text: "(key, verb, topic) records; delimiters are ( ) , space tab CR LF"
  html: "<tr><td>key</td><td>verb</td><td>topic</td></tr> rows"

verbs:
  P: 50
  L: 20
  D: -10
  C: 30
  S: 40

substrates:
  goroutine: "One goroutine per key (default)"
  process: "One child process per key, fed over a pipe"
  sequential: "--sequential, single-threaded reference reducer"

commands:
  full_pipeline: |
    topic-scores run --input actions.txt

  small_queues: |
    topic-scores run --input actions.txt --capacity 1

  child_processes: |
    topic-scores run --input actions.txt --substrate process --max-workers 16

  map_then_reduce: |
    topic-scores map --input actions.txt | topic-scores reduce

  custom_scores: |
    topic-scores run --input actions.txt --scores scores.yaml

  store_and_list: |
    topic-scores run --input actions.txt --store
    topic-scores db runs
    topic-scores db show latest --format yaml

  manifest: |
    topic-scores run --input actions.txt --manifest results/summary.json

  filter_output: |
    topic-scores run --input actions.txt --where 'score >= 50 && topic == "sports"'

  reuse_results: |
    topic-scores run --input actions.txt --cache-dir .cache --max-age 24h

config_file:
  example: |
    capacity: 8
    max_workers: 0
    substrate: goroutine
    sequential: false
    scores:
      P: 50
      L: 20

output_formats:
  tuples: "(key,topic,score) per line (default)"
  yaml: "status, run_id, totals [{key, topic, score}], stats"
  json: "Same document as yaml"

invariants:
  - "One worker per distinct key, created on first sight"
  - "Per-key FIFO; a full queue blocks the reader, never drops"
  - "Output order: first-seen key, then first-seen topic"
  - "Totals match the sequential reducer for any valid input"

db_commands:
  runs: "List stored runs (--limit, --input-hash)"
  show: "Print a stored run's totals (id or 'latest')"
  delete: "Remove a stored run"

error_behavior:
  - "Malformed record or unknown verb: no output, exit 1"
  - "Config, database, or worker process failure: exit 2"
  - "Every worker is released on failure; nothing is left running"
`
