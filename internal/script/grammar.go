package script

// Grammar returns the Lark grammar of set scripts. A script declares target
// routes and the patterns to send them, one call per statement:
//
//	target(name=kick, host="127.0.0.1", port=9000, address="/drums", subdivision=16)
//	play(target=kick, pattern="b(3,8) ~ [b b]")
//
// Patterns are quoted and compiled separately, so any battito pattern that
// holds no double quote can be played.
func Grammar() string {
	return `
// ---------- Start rule ----------
start: statement (";" statement)*

statement: target_call | play_call

// ---------- Target routes ----------
target_call: "target" "(" target_params ")"

target_params: target_param ("," SP target_param)*
target_param: "name" "=" NAME
            | "host" "=" STRING
            | "port" "=" NUMBER
            | "address" "=" STRING
            | "subdivision" "=" NUMBER

// ---------- Playback ----------
play_call: "play" "(" play_params ")"

play_params: play_param ("," SP play_param)*
play_param: "target" "=" NAME
          | "pattern" "=" STRING
          | "subdivision" "=" NUMBER

// ---------- Terminals ----------
NAME: /[A-Za-z0-9]+/
SP: " "+
STRING: /"[^"]*"/
NUMBER: /-?\d+(\.\d+)?/
`
}
