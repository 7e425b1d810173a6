// Package ui turns execshell command events into concise console messages so
// operators can follow patch application and uploads while structured
// diagnostics keep flowing through zap.
package ui
