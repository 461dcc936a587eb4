package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting pipeline":     "パイプラインを開始します",
		"Scanning %s":           "%s をスキャン中",
		"Using video stream %d": "映像ストリーム %d を使用します",
		"Sampled %d keyframes (%d bytes) from %d packets": "%[3]d パケットから %[1]d キーフレーム (%[2]d バイト) を抽出しました",
		"Decoding thumbnails at %dx%d":                    "%dx%d でサムネイルをデコード中",
		"Wrote %d thumbnails":                             "%d 枚のサムネイルを書き出しました",
		"Contact sheet saved to %s":                       "コンタクトシートを %s に保存しました",
		"Pipeline completed successfully":                 "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":                   "中断されました。シャットダウン中...",

		// Demux
		"Scanned %d packets, %d on PID %d, %d units, %d keyframes accepted (%d bytes)": "%d パケットを走査, PID %[3]d 上 %[2]d, ユニット %[4]d, 採用キーフレーム %[5]d (%[6]d バイト)",

		// Probe
		"Stream %d: %s": "ストリーム %d: %s",

		// Session
		"Session ready (display delay %d, %d decode surfaces)":  "セッション準備完了 (表示遅延 %d, デコードサーフェス %d)",
		"Submitted %d bytes: %d pictures decoded, %d displayed": "%d バイトを投入: %d ピクチャをデコード, %d を表示",
		"Sequence %dx%d seen again, keeping decoder":            "シーケンス %dx%d を再検出しました。デコーダを維持します",
		"Decoder created: coded %dx%d, output %dx%d":            "デコーダ作成: 符号化 %dx%d, 出力 %dx%d",
		"Allocated %d byte host buffer (pitch %d)":              "%d バイトのホストバッファを確保しました (ピッチ %d)",
		"Sequence %dx%d, chroma %d, bit depth %d":               "シーケンス %dx%d, クロマ %d, ビット深度 %d",
		"Skipping picture without parameter sets":               "パラメータセットのないピクチャをスキップします",

		// Output
		"Wrote %s (%d bytes)":                "%s を書き出しました (%d バイト)",
		"Wrote %s (%dx%d, %d bytes)":         "%s を書き出しました (%dx%d, %d バイト)",
		"Laid out %d images on a %dx%d grid": "%d 枚の画像を %dx%d のグリッドに配置しました",

		// Warnings
		"Dropping %d trailing bytes after packet %d":     "パケット %[2]d の後ろの %[1]d バイトを破棄します",
		"No keyframes found on stream %d":                "ストリーム %d にキーフレームが見つかりません",
		"NVDEC unavailable (%v), falling back to ffmpeg": "NVDEC が利用できません (%v)。ffmpeg を使用します",

		// Errors
		"Failed to extract keyframes: %s":   "キーフレームの抽出に失敗しました: %s",
		"Failed to decode thumbnails: %s":   "サムネイルのデコードに失敗しました: %s",
		"Failed to write contact sheet: %s": "コンタクトシートの書き出しに失敗しました: %s",
	})
}
