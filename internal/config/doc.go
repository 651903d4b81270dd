// Package config provides configuration management for bookerbdd.
//
// Configuration is layered. Later sources override earlier ones:
//
//  1. Default configuration (compiled in)
//  2. User configuration (~/.config/bookerbdd/config.yaml)
//  3. Project configuration (./.bookerbdd/config.yaml)
//  4. An explicit file passed with --config
//
// Command line flags are applied on top by the cmd package.
//
// # Configuration Structure
//
//	api:
//	  baseURL: "https://restful-booker.herokuapp.com"
//	  requestTimeout: 30s
//	  requestsPerSecond: 5
//	auth:
//	  username: admin
//	  password: password123
//	run:
//	  tags: "~@wip"
//	  format: pretty
//	  scanLimit: 50
//	  reportPath: ./reports
//	  output: console
package config
