/*
Package project implements access to live projects and persistence orchestration.

A Manager keeps one live arche.Project per project id, so every caller that
opens the same project posts to and subscribes on the same channels.
Loading, creating and saving are serialized per project with in-process
locks and, when configured, a distributed lock shared across replicas.
*/
package project
