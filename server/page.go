package server

import (
	"log/slog"
	"net/http"
)

const page = `<!DOCTYPE html>
<html>
<head>
    <title>Rock Paper Scissors Plus</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .board { max-width: 600px; margin: 0 auto; text-align: center; }
        .status { padding: 10px; margin: 10px 0; background-color: #f0f0f0; border-radius: 5px; }
        .score { font-size: 24px; margin: 20px 0; }
        button { padding: 10px 20px; margin: 5px; font-size: 16px; }
        button:disabled { opacity: 0.5; }
        #log { text-align: left; white-space: pre-line; border-top: 1px solid #ccc; padding-top: 10px; }
        #rules { white-space: pre-line; font-size: 13px; color: #555; }
    </style>
</head>
<body>
    <div class="board">
        <h1>Rock Paper Scissors Plus</h1>
        <div class="status" id="status">Connecting...</div>
        <div id="rules"></div>
        <div class="score" id="score">You 0 - 0 Bot</div>
        <div id="round">Round 1 of 3</div>
        <div class="controls">
            <button onclick="play('rock')">Rock</button>
            <button onclick="play('paper')">Paper</button>
            <button onclick="play('scissors')">Scissors</button>
            <button id="bomb" onclick="play('bomb')">Bomb</button>
        </div>
        <div id="log"></div>
    </div>

    <script>
        const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const ws = new WebSocket(scheme + location.host + '/api/ws');

        ws.onopen = function() { setStatus('Connected'); };
        ws.onclose = function() { setStatus('Disconnected'); };
        ws.onmessage = function(event) { handleMessage(JSON.parse(event.data)); };

        function handleMessage(message) {
            switch (message.type) {
                case 'game_started':
                    document.getElementById('rules').textContent = message.data.rules;
                    setStatus('Game started! Pick a move.');
                    render(message.data.state);
                    break;
                case 'game_state':
                    render(message.data.state);
                    break;
                case 'round_result':
                    const o = message.data;
                    log('Round ' + o.round + ': you played ' + o.user_move + ', bot played ' + o.bot_move + ' - ' + verdict(o.winner));
                    render({round_number: o.round, user_score: o.user_score, bot_score: o.bot_score,
                            user_bomb_used: o.user_move === 'bomb' || bombUsed, game_over: o.game_over});
                    break;
                case 'round_forfeited':
                    log(message.data.message + ' This round is wasted!');
                    render(message.data.state);
                    break;
                case 'game_end':
                    render(message.data.state);
                    setStatus(message.data.champion === 'user' ? 'YOU WIN THE GAME!' :
                              message.data.champion === 'bot' ? 'BOT WINS THE GAME!' : "IT'S A DRAW!");
                    break;
                case 'error':
                    setStatus('Error: ' + message.data);
                    break;
            }
        }

        let bombUsed = false;

        function render(state) {
            bombUsed = state.user_bomb_used;
            document.getElementById('score').textContent = 'You ' + state.user_score + ' - ' + state.bot_score + ' Bot';
            document.getElementById('round').textContent = state.game_over ? 'Game over' : 'Round ' + (state.round_number + 1) + ' of 3';
            document.getElementById('bomb').disabled = bombUsed;
            document.querySelectorAll('button').forEach(function(b) {
                if (state.game_over) { b.disabled = true; }
            });
        }

        function verdict(winner) {
            if (winner === 'user') return 'you win this round!';
            if (winner === 'bot') return 'bot wins this round!';
            return "it's a draw!";
        }

        function log(line) {
            document.getElementById('log').textContent += line + '\n';
        }

        function setStatus(text) {
            document.getElementById('status').textContent = text;
        }

        function play(move) {
            ws.send(JSON.stringify({ type: 'move', data: { move: move } }));
        }
    </script>
</body>
</html>
`

// ServeHTML serves the browser client.
func ServeHTML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page)); err != nil {
		slog.Error("failed to write page", slog.Any("error", err))
	}
}
