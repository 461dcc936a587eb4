// Package main provides localization for the fasthumb CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Commands
		"Extract sampled keyframe thumbnails from an MPEG transport stream": "MPEG トランスポートストリームから間引いたキーフレームのサムネイルを抽出",
		"List the elementary streams of a transport stream":                 "トランスポートストリームのエレメンタリストリームを一覧表示",

		// Flags
		"YAML configuration file":                                                  "YAML 設定ファイル",
		"Directory for thumbnails (default: current directory)":                    "サムネイルの出力ディレクトリ（デフォルト: カレントディレクトリ）",
		"Thumbnail width (default: 240)":                                           "サムネイルの幅（デフォルト: 240）",
		"Thumbnail height (default: 192)":                                          "サムネイルの高さ（デフォルト: 192）",
		"Minimum time between sampled keyframes (default: 10s)":                    "抽出するキーフレームの最小間隔（デフォルト: 10s）",
		"JPEG quality 1-100 (default: 75)":                                         "JPEG 品質 1-100（デフォルト: 75）",
		"Decode engine: auto, nvdec or ffmpeg":                                     "デコードエンジン: auto, nvdec, ffmpeg",
		"Path to the ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)": "ffmpeg 実行ファイルのパス（未指定時は FFMPEG_PATH 環境変数、次に PATH）",
		"CUDA device ordinal":                                                      "CUDA デバイス番号",
		"Also write a contact sheet of all thumbnails":                             "全サムネイルのコンタクトシートも書き出す",
		"Contact sheet columns (default: 4)":                                       "コンタクトシートのカラム数（デフォルト: 4）",
		"Write a Markdown run summary to this path":                                "実行サマリーを Markdown でこのパスに書き出す",
		"Directory for debug output (sampled stream, segments)":                    "デバッグ出力のディレクトリ（抽出ストリーム、セグメント）",
		"Log level (debug, info, warn, error)":                                     "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                                                  "すべてのログ出力を抑制",

		// Run messages
		"Decoding with %s":    "%s でデコードします",
		"Summary saved to %s": "サマリーを %s に保存しました",
		"Failure! Reason: %v": "失敗しました。理由: %v",
		"Summary: %d packets scanned, %d on stream %d, %d keyframes sampled, %d pictures decoded, %d thumbnails written": "サマリー: %d パケットを走査, ストリーム %[3]d 上 %[2]d, キーフレーム %[4]d 件抽出, %[5]d ピクチャをデコード, サムネイル %[6]d 枚を書き出し",

		// Summary content
		"Thumbnail Summary":  "サムネイルサマリー",
		"Generated":          "生成日時",
		"Results":            "実行結果",
		"Settings":           "設定",
		"Output":             "出力",
		"Item":               "項目",
		"Value":              "値",
		"Input":              "入力",
		"Stream":             "ストリーム",
		"probed":             "自動検出",
		"Packets Scanned":    "走査パケット数",
		"Packets on Stream":  "対象ストリームのパケット数",
		"Keyframes Sampled":  "抽出キーフレーム数",
		"Keyframe Data":      "キーフレームデータ量",
		"Pictures Decoded":   "デコードピクチャ数",
		"Thumbnails Written": "書き出しサムネイル数",
		"Backend":            "デコードエンジン",
		"Interval":           "抽出間隔",
		"Thumbnail Size":     "サムネイルサイズ",
		"Quality":            "品質",
		"Directory":          "ディレクトリ",
		"Contact Sheet":      "コンタクトシート",
		"Generated by":       "生成:",
	})
}
