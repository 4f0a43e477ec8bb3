// Package assets provides the stylesheets and HTML templates behind the
// themed workspace page.
//
// # Loaders
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in app.css, themes.css, workspace.html
//	    ├── FilesystemLoader  - overrides from a directory on disk
//	    └── AssetResolver     - custom-first with embedded fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── templates/
//	    └── {name}.html
//
// Asset names are validated so they cannot escape basePath. FilesystemLoader
// also resolves symlinks before its containment check.
package assets
